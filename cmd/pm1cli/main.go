// Command pm1cli is a thin stdin-token front end over the PM1 driver:
// a translator between typed commands and the driver's command API,
// the same role the teacher's dashboard binary plays for its ECU/GPS
// providers.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/autolaborcenter/pm1-driver/internal/chassis"
	"github.com/autolaborcenter/pm1-driver/internal/kinematics"
	"github.com/autolaborcenter/pm1-driver/internal/odometry"
	"github.com/autolaborcenter/pm1-driver/internal/pacemaker"
	"github.com/autolaborcenter/pm1-driver/internal/portscan"
)

func main() {
	portFlag := flag.String("port", "", "Comma-separated serial port candidates (default: enumerate all)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var explicit []string
	if *portFlag != "" {
		explicit = strings.Split(*portFlag, ",")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[pm1cli] signal received, shutting down")
		cancel()
	}()

	model := kinematics.DefaultChassisModel()
	opt := kinematics.DefaultRampOptimizer()

	connected := make(chan *chassis.State, 1)

	go portscan.Supervise(ctx, explicit, model, opt, func(ev portscan.SupervisorEvent) bool {
		switch ev.Kind {
		case portscan.Connected:
			log.Println("[pm1cli] chassis connected")
			select {
			case connected <- ev.Chassis:
			default:
			}
		case portscan.Disconnected:
			log.Println("[pm1cli] chassis disconnected, reconnecting")
		case portscan.ConnectFailed:
			log.Printf("[pm1cli] connect failed: %v", ev.Err)
		}
		return ctx.Err() == nil
	})

	var state *chassis.State
	select {
	case state = <-connected:
	case <-ctx.Done():
		os.Exit(1)
	}

	exitCode := runREPL(ctx, state, model, opt)
	cancel()
	os.Exit(exitCode)
}

// runREPL reads whitespace-separated tokens from stdin, one command
// per line: S (status), P <speed> <rudder> (drive), T <speed> <rudder>
// (trajectory probe). Returns 0 on EOF/clean termination.
func runREPL(ctx context.Context, state *chassis.State, model kinematics.Model, opt kinematics.Optimizer) int {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return 1
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToUpper(fields[0]) {
		case "S":
			printStatus(state)
		case "P":
			if err := handleDrive(state, fields); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		case "T":
			if err := handleTrajectory(state, model, opt, fields); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printStatus(state *chassis.State) {
	snap := state.Snapshot()
	fmt.Printf("battery=%d%% power_switch=%v speed=%.3f rudder=%.3f pose=(%.3f,%.3f,%.3f)\n",
		snap.BatteryPercent, snap.PowerSwitch, snap.Physical.Speed, snap.Physical.Rudder,
		snap.Pose.X, snap.Pose.Y, snap.Pose.Theta)
}

func handleDrive(state *chassis.State, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("usage: P <speed> <rudder>")
	}
	speed, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return fmt.Errorf("bad speed: %w", err)
	}
	rudder, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return fmt.Errorf("bad rudder: %w", err)
	}
	state.Drive(kinematics.Physical{Speed: float32(speed), Rudder: float32(rudder)})
	return nil
}

// trajectoryTicks and trajectoryStride give the 20x5 predicted-pose
// window named in the command's spec: 20 printed samples, each 5
// control periods apart.
const (
	trajectoryTicks  = 20
	trajectoryStride = 5
)

func handleTrajectory(state *chassis.State, model kinematics.Model, opt kinematics.Optimizer, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("usage: T <speed> <rudder>")
	}
	speed, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return fmt.Errorf("bad speed: %w", err)
	}
	rudder, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return fmt.Errorf("bad rudder: %w", err)
	}

	current := state.Snapshot().Physical
	target := kinematics.Physical{Speed: float32(speed), Rudder: float32(rudder)}
	period := float32(pacemaker.Period.Seconds())
	next := kinematics.NewTrajectory(model, opt, current, target, period)

	pose := odometry.Zero
	samples := make([]string, 0, trajectoryTicks)
	for i := 0; i < trajectoryTicks; i++ {
		var step kinematics.Step
		for j := 0; j < trajectoryStride; j++ {
			step = next()
		}
		pose = pose.Compose(odometry.DeltaPose(step.DS, step.DTheta))
		samples = append(samples, fmt.Sprintf("%.4f,%.4f,%.4f", pose.X, pose.Y, pose.Theta))
	}
	fmt.Println(strings.Join(samples, " "))
	return nil
}
