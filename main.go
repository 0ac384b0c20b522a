package main

import "github.com/nemopss/budgetly/cmd"

// @title Budgetly API
// @version 1.0
// @description Monthly budgets, category allocations and spending for individual users, with an admin catalog.
// @BasePath /
// @SecurityDefinitions.apikey ApiKeyAuth
// @In header
// @Name Authorization
func main() {
	cmd.Execute()
}
