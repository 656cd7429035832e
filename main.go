package main

import (
	"os"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
