package main

import (
	"github.com/humanbelnik/storypoker/internal/app"
	"github.com/humanbelnik/storypoker/internal/config"
)

func main() {
	app.GoRelay(config.Load())
}
