package main

import (
	"fmt"
	"io"

	sonic "github.com/bytedance/sonic"
)

func printJSON(w io.Writer, v any) error {
	payload, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}
