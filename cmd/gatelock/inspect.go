package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"gatelock/ledger"
	"gatelock/record"
	"gatelock/storage"
)

func newSlotCmd() *cobra.Command {
	var base uint64
	cmd := &cobra.Command{
		Use:   "slot <key>",
		Short: "Print the storage slot of a record key: keccak256(key . base)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseWord(args[0])
			if err != nil {
				return err
			}
			slot := storage.MappingSlot(key, uint256.NewInt(base))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), storage.WordHash(slot).Hex())
			return err
		},
	}
	cmd.Flags().Uint64Var(&base, "base", ledger.DefaultValueMapSlot, "mapping base slot")
	return cmd
}

type recordView struct {
	First    uint64 `json:"first"`
	Second   string `json:"second"`
	Unlocked bool   `json:"unlocked"`
	Reserved uint32 `json:"reserved"`
	Next     string `json:"next"`
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <word>",
		Short: "Decode a packed record word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := parseWord(args[0])
			if err != nil {
				return err
			}
			rec := record.Decode(word)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recordView{
				First:    rec.First,
				Second:   rec.Second.Hex(),
				Unlocked: rec.Unlocked,
				Reserved: rec.Reserved,
				Next:     rec.Next().Dec(),
			})
		},
	}
}

// parseWord accepts decimal or 0x-prefixed hex, leading zeros included.
func parseWord(raw string) (*uint256.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 0)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal or 0x-prefixed hex number", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", raw)
	}
	word, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("%q does not fit 256 bits", raw)
	}
	return word, nil
}
