package main

import (
	"os"

	"github.com/ykvit/knowledge-gateway/internal/app"
)

func main() {
	os.Exit(app.Run())
}
