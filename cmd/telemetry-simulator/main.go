// telemetry-simulator generates sample telemetry CSV in either shape,
// for demos and for exercising the streaming parser with large files.
// Output is deterministic under a fixed seed.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	shape := flag.String("shape", "wide", "CSV shape to emit: 'wide' or 'long'")
	devices := flag.Int("devices", 3, "Number of simulated machines")
	cycles := flag.Int("cycles", 200, "Cycles (or long-shape sample points) per machine")
	start := flag.String("start", "", "First timestamp, RFC3339; defaults to 7 days ago")
	seed := flag.Int64("seed", 1, "PRNG seed")
	out := flag.String("out", "", "Output file; defaults to stdout")
	flag.Parse()

	startAt := time.Now().UTC().Add(-7 * 24 * time.Hour).Truncate(time.Minute)
	if *start != "" {
		parsed, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
			os.Exit(1)
		}
		startAt = parsed.UTC()
	}

	w := bufio.NewWriter(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", *out, err)
			os.Exit(1)
		}
		defer f.Close()
		w = bufio.NewWriter(f)
	}
	defer w.Flush()

	rng := rand.New(rand.NewSource(*seed))
	switch *shape {
	case "wide":
		writeWide(w, rng, *devices, *cycles, startAt)
	case "long":
		writeLong(w, rng, *devices, *cycles, startAt)
	default:
		fmt.Fprintf(os.Stderr, "unknown shape %q\n", *shape)
		os.Exit(1)
	}
}

var locations = []string{"north-hall", "south-hall", "yard"}

func writeWide(w *bufio.Writer, rng *rand.Rand, devices, cycles int, startAt time.Time) {
	fmt.Fprintln(w, "device_id,location,cycle_started_at,cycle_duration_ms,peak_pressure_psi,avg_current_a,voltage_v,energy_kwh,inrush_multiple,voltage_sag_pct,current_unbalance_pct,ripple_pct,health_anomaly_score,e_stop,overload_trip,valve_issue,lifetime_cycle_count")

	for d := 0; d < devices; d++ {
		deviceID := fmt.Sprintf("BALER-%02d", d+1)
		location := locations[d%len(locations)]
		odometer := 40000 + rng.Intn(30000)
		ts := startAt.Add(time.Duration(d) * 3 * time.Minute)

		for c := 0; c < cycles; c++ {
			duration := 38000 + rng.NormFloat64()*4500
			if duration < 5000 {
				duration = 5000
			}
			eStop := rng.Float64() < 0.004
			overload := rng.Float64() < 0.01
			valve := rng.Float64() < 0.008
			health := rng.Float64() * 0.45
			if overload || valve {
				health += 0.3
			}
			odometer++

			fmt.Fprintf(w, "%s,%s,%s,%.0f,%.1f,%.2f,%.1f,%.3f,%.2f,%.2f,%.2f,%.2f,%.3f,%s,%s,%s,%d\n",
				deviceID, location, ts.Format(time.RFC3339), duration,
				2400+rng.NormFloat64()*150,
				32+rng.NormFloat64()*4,
				478+rng.NormFloat64()*6,
				0.45+rng.Float64()*0.2,
				4.5+rng.Float64()*3,
				rng.Float64()*14,
				rng.Float64()*8,
				rng.Float64()*11,
				health,
				boolText(eStop), boolText(overload), boolText(valve),
				odometer)

			ts = ts.Add(time.Duration(6+rng.Intn(20)) * time.Minute)
		}
	}
}

func writeLong(w *bufio.Writer, rng *rand.Rand, devices, points int, startAt time.Time) {
	fmt.Fprintln(w, "Time,deviceId,measure_name,measure_value")

	for d := 0; d < devices; d++ {
		deviceID := fmt.Sprintf("BALER-%02d", d+1)
		ts := startAt.Add(time.Duration(d) * time.Minute)
		faultLeft := 0

		for p := 0; p < points; p++ {
			stamp := ts.Format(time.RFC3339)
			fmt.Fprintf(w, "%s,%s,voltage,%.2f\n", stamp, deviceID, 478+rng.NormFloat64()*6)
			fmt.Fprintf(w, "%s,%s,temperature,%.2f\n", stamp, deviceID, 55+rng.NormFloat64()*5)

			if faultLeft == 0 && rng.Float64() < 0.02 {
				faultLeft = 1 + rng.Intn(4)
			}
			active := 0
			if faultLeft > 0 {
				active = 1
				faultLeft--
			}
			fmt.Fprintf(w, "%s,%s,digital_input,%d\n", stamp, deviceID, active)

			// Every fifth sample also closes out a press cycle.
			if p%5 == 4 {
				fmt.Fprintf(w, "%s,%s,cycle_duration_ms,%.0f\n", stamp, deviceID, 38000+rng.NormFloat64()*4500)
			}

			ts = ts.Add(5 * time.Minute)
		}
	}
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
