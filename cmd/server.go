package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"counterd/internal/assets"
	"counterd/internal/config"
	"counterd/internal/counter"
	"counterd/internal/server"
)

type serverOptions struct {
	host       string
	port       int
	configPath string
}

func serverCmd() *cobra.Command {
	opts := &serverOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTPサーバーを起動する",
		Long: `HTTPサーバーを起動します。

SIGINT または SIGTERM を受信するとグレースフルにシャットダウンします。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}

	// コマンドラインオプション
	cmd.Flags().StringVar(&opts.host, "host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "サーバーのポート (デフォルト: 8080)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML設定ファイルのパス")

	return cmd
}

func runServer(ctx context.Context, opts *serverOptions) error {
	// 設定を読み込む
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	// コマンドラインオプションで設定を上書き
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定の検証に失敗しました: %w", err)
	}

	// 静的ファイル表は起動時に一度だけ構築する
	resolver, err := assets.Embedded()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, counter.NewStore(), resolver)
	if err != nil {
		return fmt.Errorf("サーバーの作成に失敗しました: %w", err)
	}

	log.Printf("counterd を起動します: %s (静的ファイル %d 件)", cfg.ServerAddress(), resolver.Len())
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
	}
	return nil
}
