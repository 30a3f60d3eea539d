package handlers

import (
	"strconv"

	html "github.com/gofiber/template/html/v2"

	"cafedesk/internal/api"
)

// Engine loads the console templates with the helpers they call.
func Engine(dir, serverURL string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("image", func(ref string) string { return api.ImageURL(serverURL, ref) })
	engine.AddFunc("price", func(p float64) string { return strconv.FormatFloat(p, 'f', 2, 64) })
	engine.AddFunc("add", func(a, b int) int { return a + b })
	return engine
}
