package main

import (
	"github.com/corray333/backend-labs/coffeeshop/internal/app"
	"github.com/corray333/backend-labs/coffeeshop/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
