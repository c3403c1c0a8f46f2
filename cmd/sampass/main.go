// cmd/sampass/main.go
package main

import (
	"sampass/internal/app"
	"sampass/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
