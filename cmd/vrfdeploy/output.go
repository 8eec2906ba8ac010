package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Bidon15/vrfdeploy"
	"github.com/Bidon15/vrfdeploy/internal/orchestrator"
)

func checkOutputFormat(format string) error {
	switch format {
	case "json", "yaml", "text":
		return nil
	}
	return fmt.Errorf("%w: unknown output format %q (want json, yaml or text)", vrfdeploy.ErrInvalidParameter, format)
}

// writeReport prints v to w in the requested format.
func writeReport(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return writeText(w, v)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func writeText(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch r := v.(type) {
	case *orchestrator.Result:
		fmt.Fprintf(tw, "Contract deployed to:\t%s\n", r.Contract.Address.Hex())
		fmt.Fprintf(tw, "Deployer:\t%s\n", r.Signer.Hex())
		fmt.Fprintf(tw, "Chain ID:\t%d\n", r.Contract.ChainID)
		fmt.Fprintf(tw, "Transaction:\t%s\n", r.Contract.TxHash.Hex())
		fmt.Fprintf(tw, "Block:\t%d\n", r.Contract.BlockNumber)
		fmt.Fprintf(tw, "Gas used:\t%d\n", r.Contract.GasUsed)
		fmt.Fprintf(tw, "Arguments:\t%s\n", r.ArgumentsPath)
		fmt.Fprintf(tw, "Run ID:\t%s\n", r.RunID)
	case argsReport:
		fmt.Fprintf(tw, "Path:\t%s\n", r.Path)
		for i, a := range r.Arguments {
			fmt.Fprintf(tw, "  [%d]\t%v\n", i, a)
		}
		if r.Encoded != "" {
			fmt.Fprintf(tw, "Encoded (%s):\t%s\n", r.Contract, r.Encoded)
		}
	default:
		fmt.Fprintf(tw, "%v\n", v)
	}
	return tw.Flush()
}
