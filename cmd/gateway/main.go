// cmd/gateway/main.go
package main

import (
	"go-auth-api/gateway"
)

func main() {
	gateway.Run()
}
