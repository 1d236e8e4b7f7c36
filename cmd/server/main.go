package main

import (
	_ "github.com/dwarvesf/bridge-relayer/docs"
	"github.com/dwarvesf/bridge-relayer/internal/server"
)

// @title Bridge Relayer API
// @version 1.0
// @description Quotes cross-chain transfers, watches one-off deposit addresses and mints on Sui.
// @BasePath /api/v1
func main() {
	server.Init()
}
