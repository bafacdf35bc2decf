package main

import (
	"gacha-backend/cmd/gacha-cli/commands"
	"gacha-backend/internal/components/telemetry"
	"gacha-backend/pkg/serviceutil"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(serviceutil.SignalContext())
}
