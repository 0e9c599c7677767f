package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ErlanBelekov/async-sched/config"
	"github.com/ErlanBelekov/async-sched/internal/client"
	"github.com/ErlanBelekov/async-sched/internal/wire"
	"github.com/spf13/cobra"
)

func newClientCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Send a single command to a running scheduler server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if host == "" || port == 0 {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if host == "" {
					host = cfg.Host
				}
				if port == 0 {
					port = cfg.Port
				}
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&host, "host", "", "server host, defaults to ASYNC_SCHED_HOST")
	cmd.PersistentFlags().IntVar(&port, "port", 0, "server port, defaults to ASYNC_SCHED_PORT")

	dial := func() (*client.Client, error) { return client.Dial(host, port) }

	cmd.AddCommand(newQuitServerCmd(dial))
	cmd.AddCommand(newRequestSchedulesCmd(dial))
	cmd.AddCommand(newUpdateServerCmd(dial))
	cmd.AddCommand(newStopScheduleCmd(dial))
	cmd.AddCommand(newRunCommandCmd(dial))
	cmd.AddCommand(newScheduleCommandCmd(dial))

	return cmd
}

type dialFunc func() (*client.Client, error)

func printResponse(resp wire.Message) {
	switch m := resp.(type) {
	case *wire.Ack:
		fmt.Println(m.Text)
	case *wire.ErrorMsg:
		fmt.Println("error:", m.Text)
	default:
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
	}
}

func newQuitServerCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "quit_server",
		Short: "Ask the server to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.QuitServer()
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
}

func newRequestSchedulesCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "request_schedules",
		Short: "List currently running schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			list, err := c.RequestSchedules()
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(list, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}

func newUpdateServerCmd(dial dialFunc) *cobra.Command {
	var moduleName string
	cmd := &cobra.Command{
		Use:   "update_server",
		Short: "Trigger a callback registry reload",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.UpdateServer(moduleName)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&moduleName, "module_name", "", "restrict the reload to a single manifest file")
	return cmd
}

func newStopScheduleCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stop_schedule NAME",
		Short: "Remove a running schedule by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.StopSchedule(args[0])
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
}

func newRunCommandCmd(dial dialFunc) *cobra.Command {
	var argsJSON, kwargsJSON string
	cmd := &cobra.Command{
		Use:   "run_command CALLBACK_NAME",
		Short: "Invoke a registered callback once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args, kwargs, err := parseArgsKwargs(argsJSON, kwargsJSON)
			if err != nil {
				return err
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.RunCommand(cmdArgs[0], args, kwargs)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "[]", "JSON array of positional arguments")
	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "{}", "JSON object of keyword arguments")
	return cmd
}

func newScheduleCommandCmd(dial dialFunc) *cobra.Command {
	var (
		name, callbackName, argsJSON, kwargsJSON string
		weeks, days, hours, minutes, seconds     float64
		repeat                                   bool
		at                                       string
	)
	cmd := &cobra.Command{
		Use:   "schedule_command",
		Short: "Install a recurring or one-shot schedule bound to a callback",
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args, kwargs, err := parseArgsKwargs(argsJSON, kwargsJSON)
			if err != nil {
				return err
			}
			dto := wire.ScheduleDTO{
				Weeks: weeks, Days: days, Hours: hours, Minutes: minutes, Seconds: seconds,
				Repeat: repeat,
			}
			if at != "" {
				dto.At = &at
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.ScheduleCommand(name, callbackName, dto, args, kwargs)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "schedule name")
	cmd.Flags().StringVar(&callbackName, "callback_name", "", "registered callback to bind")
	cmd.Flags().Float64Var(&weeks, "weeks", 0, "")
	cmd.Flags().Float64Var(&days, "days", 0, "")
	cmd.Flags().Float64Var(&hours, "hours", 0, "")
	cmd.Flags().Float64Var(&minutes, "minutes", 0, "")
	cmd.Flags().Float64Var(&seconds, "seconds", 0, "")
	cmd.Flags().BoolVar(&repeat, "repeat", false, "repeat after firing")
	cmd.Flags().StringVar(&at, "at", "", "time-of-day anchor, HH:MM:SS")
	cmd.Flags().StringVar(&argsJSON, "args", "[]", "JSON array of positional arguments")
	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "{}", "JSON object of keyword arguments")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("callback_name")
	return cmd
}

func parseArgsKwargs(argsJSON, kwargsJSON string) ([]any, map[string]any, error) {
	var args []any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, nil, fmt.Errorf("--args: %w", err)
		}
	}
	var kwargs map[string]any
	if kwargsJSON != "" {
		if err := json.Unmarshal([]byte(kwargsJSON), &kwargs); err != nil {
			return nil, nil, fmt.Errorf("--kwargs: %w", err)
		}
	}
	return args, kwargs, nil
}
