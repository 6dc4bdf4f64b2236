package app

import (
	"testing"

	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/kafka"
	"github.com/nguyentranbao-ct/product-hub/internal/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	conf, err := config.Load()
	require.NoError(t, err)

	require.NoError(t, fx.ValidateApp(
		fx.NopLogger,
		Module(conf),
		fx.Invoke(server.StartServer, kafka.StartSyndication),
	))
}
