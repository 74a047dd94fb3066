package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	courier "github.com/courierbus/courier-go"
	"github.com/courierbus/courier-go/contracts"
	"github.com/courierbus/courier-go/interceptors"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
)

// Demo message types

type greeting struct {
	contracts.BaseMessage
	Text string
}

type timeRequest struct {
	contracts.BaseRequest[string]
	Format string
}

type inventoryRequest struct {
	contracts.BaseCollectionRequest[string]
}

// console is the demo recipient.
type console struct {
	name string
}

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "courier-demo",
		Short:   "Demonstrate the courier in-process messenger",
		Long:    "courier-demo exercises broadcast, channel scoping, request/reply, and weak recipient lifecycle on a courier messenger.",
		Version: version,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	newMessenger := func() *courier.Messenger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return courier.NewStrongReferenceMessenger(
			courier.WithLogger(logger),
			courier.WithInterceptors(interceptors.NewLoggingInterceptor(logger)),
		)
	}

	broadcastCmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Broadcast a message to several recipients, with channel scoping",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newMessenger()
			ctx := cmd.Context()

			first := &console{name: "first"}
			second := &console{name: "second"}
			scoped := &console{name: "scoped"}

			handler := func(ctx context.Context, r *console, msg *greeting) error {
				fmt.Printf("[%s] %s\n", r.name, msg.Text)
				return nil
			}
			if err := courier.Register(m, first, handler); err != nil {
				return err
			}
			if err := courier.Register(m, second, handler); err != nil {
				return err
			}
			if err := courier.Register(m, scoped, handler, courier.OnChannel("audit")); err != nil {
				return err
			}

			msg := &greeting{BaseMessage: contracts.NewBaseMessage("greeting"), Text: "hello, default channel"}
			if err := m.Send(ctx, msg); err != nil {
				return err
			}

			audit := &greeting{BaseMessage: contracts.NewBaseMessage("greeting"), Text: "hello, audit channel"}
			return m.Send(ctx, audit, courier.OnChannel("audit"))
		},
	}

	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Send a synchronous and an asynchronous request",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newMessenger()
			ctx := cmd.Context()

			clock := &console{name: "clock"}
			err := courier.Register(m, clock, func(ctx context.Context, r *console, msg *timeRequest) error {
				return msg.Reply(time.Now().Format(msg.Format))
			})
			if err != nil {
				return err
			}

			req := &timeRequest{BaseRequest: contracts.NewBaseRequest[string]("timeRequest"), Format: time.RFC3339}
			now, err := courier.Request(ctx, m, req)
			if err != nil {
				return err
			}
			fmt.Println("sync reply:", now)

			slow := &console{name: "slow-clock"}
			err = courier.Register(m, slow, func(ctx context.Context, r *console, msg *timeRequest) error {
				go func() {
					time.Sleep(50 * time.Millisecond)
					_ = msg.Reply(time.Now().Format(msg.Format))
				}()
				return nil
			}, courier.OnChannel("async"))
			if err != nil {
				return err
			}

			asyncReq := &timeRequest{BaseRequest: contracts.NewBaseRequest[string]("timeRequest"), Format: time.Kitchen}
			future, err := courier.RequestAsync(ctx, m, asyncReq, courier.OnChannel("async"))
			if err != nil {
				return err
			}
			later, err := future.Wait(ctx)
			if err != nil {
				return err
			}
			fmt.Println("async reply:", later)
			return nil
		},
	}

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Aggregate responses from every handler with a collection request",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newMessenger()
			ctx := cmd.Context()

			for _, item := range []string{"compass", "lantern", "rope"} {
				holder := &console{name: item}
				err := courier.Register(m, holder, func(ctx context.Context, r *console, msg *inventoryRequest) error {
					msg.AddResponse(r.name)
					return nil
				})
				if err != nil {
					return err
				}
			}

			req := &inventoryRequest{BaseCollectionRequest: contracts.NewBaseCollectionRequest[string]("inventoryRequest")}
			items, err := courier.Collect(ctx, m, req)
			if err != nil {
				return err
			}
			fmt.Println("inventory:", items)
			return nil
		},
	}

	weakCmd := &cobra.Command{
		Use:   "weak",
		Short: "Show weak recipient lifecycle: collected recipients stop receiving dispatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			m := courier.NewWeakReferenceMessenger(courier.WithLogger(logger))
			ctx := cmd.Context()

			kept := &console{name: "kept"}
			if err := courier.Register(m, kept, func(ctx context.Context, r *console, msg *greeting) error {
				fmt.Printf("[%s] %s\n", r.name, msg.Text)
				return nil
			}); err != nil {
				return err
			}

			dropped := &console{name: "dropped"}
			if err := courier.Register(m, dropped, func(ctx context.Context, r *console, msg *greeting) error {
				fmt.Printf("[%s] %s\n", r.name, msg.Text)
				return nil
			}); err != nil {
				return err
			}
			fmt.Println("registrations:", m.EntryCount())

			// Drop the only external reference and let the collector reclaim it.
			dropped = nil
			_ = dropped
			runtime.GC()
			runtime.GC()

			msg := &greeting{BaseMessage: contracts.NewBaseMessage("greeting"), Text: "still here"}
			if err := m.Send(ctx, msg); err != nil {
				return err
			}
			fmt.Println("registrations after GC:", m.EntryCount())
			runtime.KeepAlive(kept)
			return nil
		},
	}

	rootCmd.AddCommand(broadcastCmd, requestCmd, collectCmd, weakCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
