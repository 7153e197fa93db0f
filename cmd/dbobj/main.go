// Command dbobj reads and writes single table rows from the command line.
//
// Usage:
//
//	dbobj show   --table items --id 12
//	dbobj get    --table items --col name:s --col qty:d --select name --where qty=3
//	dbobj save   --table items --col name:s [--id 12] --set name=hammer
//	dbobj delete --table items --id 12
//	dbobj export --table items --col name:s --out items.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/likearthian/dbobj"
)

var (
	errTableRequired = errors.New("--table is required")
	errIDRequired    = errors.New("--id is required")
	errOutRequired   = errors.New("--out is required")
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd, err := parseCommand(args)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		fmt.Fprintln(errOut, usage)
		return 1
	}

	cfg := dbobj.Config{Backend: "postgres"}
	if cmd.configPath != "" {
		if cfg, err = dbobj.LoadConfig(cmd.configPath); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
	}

	logger, err := dbobj.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer logger.Sync()

	store, closeStore, err := dbobj.OpenStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer closeStore()

	if err := execute(ctx, store, cmd, out, logger); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	return 0
}

const usage = `usage: dbobj <show|get|save|delete|export> [flags]

flags:
  --config path      config file (JSON with comments)
  --table name       table name
  --schema name      table schema
  --key name         key column (default "id")
  --col name:fmt     column and format (d, s, f), repeatable
  --id n             key value
  --select a,b       columns for get/export
  --where col=val    equality condition, repeatable
  --set col=val      value to save, repeatable
  --out path         export destination`

type command struct {
	name       string
	configPath string
	table      dbobj.TableDef
	id         int64
	args       dbobj.GetArgs
	set        map[string]any
	out        string
}

func parseCommand(args []string) (command, error) {
	var cmd command
	if len(args) == 0 {
		return cmd, errors.New("missing command")
	}

	cmd.name = args[0]
	switch cmd.name {
	case "show", "get", "save", "delete", "export":
	default:
		return cmd, fmt.Errorf("unknown command: %s", cmd.name)
	}

	flagSet := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	configPath := flagSet.String("config", "", "config file")
	table := flagSet.String("table", "", "table name")
	schema := flagSet.String("schema", "", "table schema")
	key := flagSet.String("key", "id", "key column")
	cols := flagSet.StringArray("col", nil, "column and format")
	id := flagSet.Int64("id", 0, "key value")
	selects := flagSet.StringSlice("select", nil, "columns to select")
	wheres := flagSet.StringArray("where", nil, "equality condition")
	sets := flagSet.StringArray("set", nil, "value to save")
	outPath := flagSet.String("out", "", "export destination")

	if err := flagSet.Parse(args[1:]); err != nil {
		return cmd, err
	}

	if *table == "" {
		return cmd, errTableRequired
	}

	var columns []dbobj.Column
	for _, c := range *cols {
		name, format, _ := strings.Cut(c, ":")
		f, err := dbobj.ParseFormat(format)
		if err != nil {
			return cmd, fmt.Errorf("--col %s: %w", c, err)
		}
		columns = append(columns, dbobj.Column{Name: name, Format: f})
	}

	where, err := parseAssignments("--where", *wheres)
	if err != nil {
		return cmd, err
	}

	set, err := parseAssignments("--set", *sets)
	if err != nil {
		return cmd, err
	}

	cmd.configPath = *configPath
	cmd.table = dbobj.NewTableDef(*table, *key, columns...).WithSchema(*schema)
	cmd.id = *id
	cmd.args = dbobj.GetArgs{Select: *selects, Where: where}
	cmd.set = set
	cmd.out = *outPath

	switch {
	case (cmd.name == "show" || cmd.name == "delete") && cmd.id == 0:
		return cmd, errIDRequired
	case cmd.name == "export" && cmd.out == "":
		return cmd, errOutRequired
	}

	return cmd, nil
}

func parseAssignments(flagName string, values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}

	result := make(map[string]any, len(values))
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%s %q: expected col=value", flagName, v)
		}
		result[k] = val
	}

	return result, nil
}

func execute(ctx context.Context, store dbobj.Store, cmd command, out io.Writer, logger *zap.Logger) error {
	obj := dbobj.New(store, cmd.table, dbobj.WithLogger(logger))

	switch cmd.name {
	case "show":
		found, err := obj.Populate(ctx, cmd.id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s %d: %w", cmd.table.Name, cmd.id, dbobj.ErrKeyNotFound)
		}
		return writeJSON(out, objectRow(obj))

	case "get":
		res, err := obj.Get(ctx, cmd.args)
		if err != nil {
			return err
		}
		if res.Scalar {
			return writeJSON(out, res.Value)
		}
		return writeJSON(out, res.Rows)

	case "save":
		if cmd.id != 0 {
			if _, err := obj.Populate(ctx, cmd.id); err != nil {
				return err
			}
			obj.SetID(cmd.id)
		}
		if err := obj.Assign(cmd.set); err != nil {
			return err
		}
		if _, err := obj.Save(ctx); err != nil {
			return err
		}
		return writeJSON(out, objectRow(obj))

	case "delete":
		obj.SetID(cmd.id)
		n, err := obj.Delete(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]int64{"deleted": n})

	case "export":
		res, err := obj.Get(ctx, dbobj.GetArgs{Select: cmd.args.Select, Where: cmd.args.Where})
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		var data any = res.Rows
		if res.Scalar {
			data = res.Value
		}
		if err := writeJSON(&buf, data); err != nil {
			return err
		}

		if err := atomic.WriteFile(cmd.out, &buf); err != nil {
			return fmt.Errorf("write %s: %w", cmd.out, err)
		}
		return writeJSON(out, map[string]any{"exported": len(res.Rows), "out": cmd.out})
	}

	return fmt.Errorf("unknown command: %s", cmd.name)
}

func objectRow(obj *dbobj.Object) dbobj.Row {
	row := obj.Data()
	row[obj.TableDef().KeyField] = obj.ID()
	return row
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
