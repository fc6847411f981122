package main

import (
	"github.com/corray333/backend-labs/food-ordering/internal/app"
	"github.com/corray333/backend-labs/food-ordering/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
