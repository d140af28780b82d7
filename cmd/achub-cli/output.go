package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/plugins/acpartner"
)

type outputMode struct {
	json bool
}

func (o outputMode) printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal("format json", err)
	}
	fmt.Println(string(data))
}

func (o outputMode) table(rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, joinRow(row))
	}
	_ = w.Flush()
}

func joinRow(row []string) string {
	if len(row) == 0 {
		return ""
	}
	out := row[0]
	for i := 1; i < len(row); i++ {
		out += "\t" + row[i]
	}
	return out
}

func printStatus(snapshot acpartner.Snapshot) {
	fmt.Printf("Power: %s\n", snapshot.Power)
	fmt.Printf("Load power: %d W\n", snapshot.LoadPowerWatts)
	fmt.Printf("Target temperature: %s\n", optionalTemp(snapshot.TargetTemperature))
	fmt.Printf("Mode: %s\n", optionalString(snapshot.Mode))
	fmt.Printf("Fan speed: %s\n", optionalString(snapshot.FanSpeed))
	fmt.Printf("Swing mode: %s\n", optionalString(snapshot.SwingMode))
}

func optionalTemp(value *int) string {
	if value == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d °C", *value)
}

func optionalString(value *string) string {
	if value == nil {
		return "unknown"
	}
	return *value
}

func printDescriptor(descriptor core.PluginDescriptor) {
	fmt.Printf("id: %s\n", descriptor.PluginID)
	fmt.Printf("name: %s\n", descriptor.DisplayName)
	fmt.Printf("version: %s\n", descriptor.Version)
	fmt.Printf("status: %s\n", descriptor.Status)
	if descriptor.HealthMessage != "" {
		fmt.Printf("health: %s\n", descriptor.HealthMessage)
	}
	fmt.Println("endpoints:")
	for _, endpoint := range descriptor.Endpoints {
		fmt.Printf("  - %s\n", endpoint)
	}
	fmt.Println("dashboards:")
	for _, dash := range descriptor.Dashboards {
		fmt.Printf("  - %s (%s)\n", dash.Name, dash.Path)
	}
	fmt.Println("agents_md:")
	fmt.Println(descriptor.AgentsMD)
}
