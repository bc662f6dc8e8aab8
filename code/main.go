package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Voltaic314/IRQWave/code/cli"
	"github.com/Voltaic314/IRQWave/code/config"
	"github.com/Voltaic314/IRQWave/code/db"
	"github.com/Voltaic314/IRQWave/code/db/tables"
	"github.com/Voltaic314/IRQWave/code/events"
	"github.com/Voltaic314/IRQWave/code/irq"
	"github.com/Voltaic314/IRQWave/code/logging"
	"github.com/Voltaic314/IRQWave/code/signals"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
	typesignals "github.com/Voltaic314/IRQWave/code/types/signals"
)

const settingsPath = "settings/irqwave_settings.json"

func main() {
	// "irqwave listen [k|m|p]" turns this process into the UDP log viewer
	// instead of running the simulation.
	if len(os.Args) > 1 && os.Args[1] == "listen" {
		filter := ""
		if len(os.Args) > 2 {
			filter = os.Args[2]
		}
		cli.NewReceiver(filter).StartListener()
		return
	}

	fmt.Println("🎛️  IRQWave is starting up...")
	fmt.Println("Interrupt Controller Simulation (type 'status' to see masks and pending interrupts)")

	logging.InitLogger(settingsPath)
	signals.InitSignalRouter()
	cfg := config.Load(settingsPath)

	// DuckDB audit trail. The simulation runs fine without it; dispatch
	// never depends on the database.
	var history irq.HistoryStore
	dbInstance, err := db.NewDB(cfg.DBPath)
	if err != nil {
		logging.GlobalLogger.LogMessage("warning", "Audit DB unavailable, continuing without it", map[string]any{
			"path":  cfg.DBPath,
			"error": err.Error(),
		})
		dbInstance = nil
	} else {
		if err := (tables.AuditLogTable{}).Init(dbInstance); err != nil {
			logging.GlobalLogger.LogMessage("warning", "Failed to init audit_log table", map[string]any{"error": err.Error()})
		}
		if err := (tables.ISRHistoryTable{}).Init(dbInstance); err != nil {
			logging.GlobalLogger.LogMessage("warning", "Failed to init isr_history table", map[string]any{"error": err.Error()})
		}
		dbInstance.InitWriteQueue("isr_history", 25, 2*time.Second)
		logging.GlobalLogger.RegisterDB(dbInstance)
		history = dbInstance
	}

	isrLog, err := logging.NewISRLog(cfg.ISRLogPath)
	if err != nil {
		fmt.Println("❌ Could not reset the ISR log:", err)
		return
	}

	bus := events.NewEventBus()
	queue := irq.NewInterruptQueue()
	timings := cfg.Timings()
	controller := irq.NewController(queue, timings, isrLog, history, bus, cfg.DeferInterval())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		controller.Run()
	}()
	signals.GlobalSR.On(typesignals.TopicShutdown, func(sig typesignals.Signal) {
		controller.Stop()
		signals.Ack(sig)
	})

	for _, dev := range typesirq.AllDevices() {
		source := irq.NewDeviceSource(dev, timings[dev], queue)
		wg.Add(1)
		go func() {
			defer wg.Done()
			source.Run()
		}()
		src := source
		signals.GlobalSR.On(typesignals.TopicShutdown, func(sig typesignals.Signal) {
			src.Stop()
			signals.Ack(sig)
		})
	}

	console, err := cli.NewConsole(queue, bus)
	if err != nil {
		fmt.Println("❌ Could not start the console:", err)
		signals.GlobalSR.Publish(typesignals.Signal{Topic: typesignals.TopicShutdown})
	} else {
		console.Run() // blocks until exit/EOF, then broadcasts shutdown
	}

	wg.Wait()

	if dbInstance != nil {
		dbInstance.ForceFlushTable("audit_log")
		dbInstance.ForceFlushTable("isr_history")
	}
	logging.GlobalLogger.Stop()
	if dbInstance != nil {
		dbInstance.Close()
	}

	fmt.Println("Simulation terminated. Log saved to", isrLog.Path())
}
