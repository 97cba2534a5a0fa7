// gateway/main_test.go
package gateway

import (
	"go-auth-api/logger"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}
