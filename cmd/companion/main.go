// Command companion runs the wellness companion API and its operator tooling.
//
// @title                       Companion API
// @version                     1.0
// @description                 Crisis-gated, token-metered wellness companion backend.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
