package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/app"
	"github.com/shrimpsizemoose/haksa/internal/models"
	"github.com/shrimpsizemoose/haksa/internal/view"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		studentNo  = flag.String("student-no", "", "Student number")
		name       = flag.String("name", "", "Student name")
		birth      = flag.String("birth", "", "Birth date, YYMMDD")
		phone      = flag.String("phone", "", "Last four digits of the phone number")
		reset      = flag.Bool("reset-request", false, "Print the password reset instructions and exit")
	)
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	controller := service.NewController()

	if *reset {
		fmt.Println(controller.RequestReset().Message)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, _ := controller.Submit(ctx, models.LookupForm{
		StudentNo:   *studentNo,
		StudentName: *name,
		Birth:       *birth,
		PhoneLast4:  *phone,
	})

	fmt.Println(snap.Status.Message)
	if snap.State != view.StateResultShown {
		if snap.Focus != "" {
			fmt.Printf("check: %s\n", snap.Focus)
		}
		stop()
		service.Close()
		os.Exit(1)
	}

	fmt.Printf("googleId: %s\n", snap.Result.GoogleID)
	if snap.Result.DemoPassword != "" {
		fmt.Printf("demoPw:   %s\n", snap.Result.DemoPassword)
	}
}
