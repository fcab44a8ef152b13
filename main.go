package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/scholar/internal/scholar/cmd"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	if err := scholar(); err != nil {
		logrus.Fatal(err)
	}
}

func scholar() error {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
