// Package cmd はcounterdのコマンドライン実装です
package cmd

import (
	"github.com/spf13/cobra"
)

// ビルド時に設定されるバージョン情報
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Execute はルートコマンドを実行する
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "counterd",
		Short: "共有カウンターサーバー",
		Long: `counterd はカウンター値をページに埋め込んで配信し、
JSON APIで加算を受け付けるHTTPサーバーです。

カウンター値はメモリ上にのみ保持され、再起動で0に戻ります。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serverCmd(),
		versionCmd(),
	)

	return rootCmd
}
