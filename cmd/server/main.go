package main

import "healthlink/internal/app"

// @title           HealthLink API
// @version         1.0
// @description     Telehealth platform backend: accounts, appointments, payments and notifications.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
