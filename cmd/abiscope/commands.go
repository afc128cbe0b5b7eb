package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/branched-services/go-abiscope"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	topicF = "topic"
	dataF  = "data"
	valueF = "value"

	topicUsage = "Log topic, topic0 first. Repeat for each topic."
	dataUsage  = "Hex encoded log data."
	valueUsage = "Ether sent with the call, as amount[@unit]. Defaults to wei."
)

const (
	unresolvedCallMsg = "cannot decode calldata"
	unresolvedLogMsg  = "cannot decode log"
)

func (a *app) selectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selectors",
		Short: "List the selectors derived from the interface.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"Selector", "Kind", "Signature"})
			for _, row := range table.Rows() {
				tw.Append([]string{row.Selector.Hex(), row.Kind.String(), row.Signature})
			}
			tw.SetFooter([]string{"Total", "", fmt.Sprintf("%d", table.Len())})
			tw.Render()
			return nil
		}),
	}
}

func (a *app) decodeCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-call CALLDATA",
		Short: "Decode hex calldata against the interface.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}

			decoded, err := table.DecodeCallHex(args[0])
			if abiscope.IsUnresolved(err) {
				a.logger.Debug("Unresolved calldata", zap.Error(err))
				_, err = fmt.Fprintln(cmd.OutOrStdout(), unresolvedCallMsg)
				return err
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd, decoded)
		}),
	}
}

func (a *app) decodeLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode-log",
		Short: "Decode a log entry against the interface.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}

			rawTopics, err := cmd.Flags().GetStringSlice(topicF)
			if err != nil {
				return err
			}
			rawData, err := cmd.Flags().GetString(dataF)
			if err != nil {
				return err
			}

			topics := make([]common.Hash, len(rawTopics))
			for i, raw := range rawTopics {
				b, err := hexutil.Decode(raw)
				if err != nil || len(b) != common.HashLength {
					return fmt.Errorf("topic %d: expected 32 hex bytes, got %q", i, raw)
				}
				topics[i] = common.BytesToHash(b)
			}
			var data []byte
			if rawData != "" {
				if data, err = hexutil.Decode(rawData); err != nil {
					return fmt.Errorf("--%s: %w", dataF, err)
				}
			}

			decoded, err := table.DecodeLog(topics, data)
			if abiscope.IsUnresolved(err) {
				a.logger.Debug("Unresolved log", zap.Error(err))
				_, err = fmt.Fprintln(cmd.OutOrStdout(), unresolvedLogMsg)
				return err
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd, decoded)
		}),
	}

	cmd.Flags().StringSlice(topicF, nil, topicUsage)
	cmd.Flags().String(dataF, "", dataUsage)
	return cmd
}

func (a *app) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode METHOD [PATH=VALUE[@UNIT]]...",
		Short: "Encode calldata for a function from path assignments.",
		Long: `Encode calldata for a function. Each argument assigns one leaf:
  to=0x000000000000000000000000000000000000dEaD
  amount=1.5@ether
  orders.0.maker=0x...
Array rows are created as their positions are named.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}

			tree, err := collect(table, args[0], args[1:])
			if err != nil {
				return err
			}
			data, err := table.EncodeCall(args[0], tree.Flatten())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
			return err
		}),
	}
}

func (a *app) callCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call METHOD [PATH=VALUE[@UNIT]]...",
		Short: "Execute a view function over JSON-RPC and decode its result.",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}
			if !common.IsHexAddress(a.cfg.Address) {
				return fmt.Errorf("--%s must be a contract address, got %q", addressF, a.cfg.Address)
			}

			tree, err := collect(table, args[0], args[1:])
			if err != nil {
				return err
			}

			var callOpts []abiscope.CallOption
			rawValue, err := cmd.Flags().GetString(valueF)
			if err != nil {
				return err
			}
			if rawValue != "" {
				amount, err := parseValue(rawValue)
				if err != nil {
					return fmt.Errorf("--%s: %w", valueF, err)
				}
				callOpts = append(callOpts, abiscope.WithCallValue(amount))
			}

			tr, err := abiscope.DialRPC(cmd.Context(), a.cfg.RPC)
			if err != nil {
				return err
			}
			defer tr.Close()

			contractOpts := []abiscope.ContractOption{abiscope.WithTransport(tr)}
			if a.cfg.From != "" {
				if !common.IsHexAddress(a.cfg.From) {
					return fmt.Errorf("--%s must be an address, got %q", fromF, a.cfg.From)
				}
				contractOpts = append(contractOpts, abiscope.WithFrom(common.HexToAddress(a.cfg.From)))
			}
			contract := abiscope.NewContract(common.HexToAddress(a.cfg.Address), table, contractOpts...)

			call, err := contract.InvokeTree(args[0], tree, callOpts...)
			if err != nil {
				return err
			}
			a.logger.Info("Executing call",
				zap.String("to", contract.Address().Hex()),
				zap.String("signature", call.Signature()),
				zap.String("data", hexutil.Encode(call.Data())))

			res, err := contract.Execute(cmd.Context(), call)
			if err != nil {
				return err
			}
			if res.Output != nil {
				return writeJSON(cmd, res.Output)
			}
			return writeJSON(cmd, res.Logs)
		}),
	}

	cmd.Flags().String(valueF, "", valueUsage)
	return cmd
}

// collect builds the input tree for method from PATH=VALUE[@UNIT] assignments.
func collect(table *abiscope.SelectorTable, method string, assignments []string) (*abiscope.InputTree, error) {
	entry, ok := table.Method(method)
	if !ok {
		return nil, fmt.Errorf("unknown method %q", method)
	}

	tree := abiscope.NewInputTree(entry.Inputs)
	for _, assignment := range assignments {
		dotted, raw, ok := strings.Cut(assignment, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not PATH=VALUE", assignment)
		}

		next, path, err := tree.ResolvePath(dotted)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dotted, err)
		}
		typ, err := next.TypeAt(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dotted, err)
		}

		if amount, unitName, hasUnit := strings.Cut(raw, "@"); hasUnit && isInteger(typ) {
			unit, err := abiscope.ParseUnit(unitName)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", dotted, err)
			}
			next, err = next.SetAmount(path, amount, unit)
			if err != nil {
				return nil, err
			}
		} else if next, err = next.Set(path, raw); err != nil {
			return nil, err
		}
		tree = next
	}
	return tree, nil
}

func isInteger(t abiscope.Type) bool {
	_, _, ok := t.IntegerBits()
	return ok
}

func parseValue(raw string) (*big.Int, error) {
	unit := abiscope.Wei
	amount, unitName, hasUnit := strings.Cut(raw, "@")
	if hasUnit {
		var err error
		if unit, err = abiscope.ParseUnit(unitName); err != nil {
			return nil, err
		}
	}
	return abiscope.ParseAmount(abiscope.ElementaryType("uint256"), amount, unit)
}
