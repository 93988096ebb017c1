package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/config"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/metrics"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/tracing"
	"github.com/CharlieCarsonKids/saleor-storefront/saleor"
)

const usage = `storefront — консольный клиент Saleor API

Команды:
  login [email]         вход в систему (пароль запрашивается скрыто)
  logout                выход из системы
  me                    аккаунт текущего пользователя
  product <id>          карточка товара
  order <token>         заказ по токену
  watch-product <id>    наблюдение за товаром (Ctrl+C для выхода)
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty || cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка инициализации tracing")
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Addr(), cfg.App.Name)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Msg("Metrics Server остановлен с ошибкой")
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	api, closeSDK, err := saleor.FromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка инициализации SDK")
	}
	defer closeSDK()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(ctx, api, os.Args[1], os.Args[2:]); err != nil {
		logger.Error().Err(err).Msg("Команда завершилась с ошибкой")
		os.Exit(1)
	}
}

func run(ctx context.Context, api *saleor.API, cmd string, args []string) error {
	switch cmd {
	case "login":
		return runLogin(ctx, api, args)
	case "logout":
		return api.SignOut(ctx)
	case "me":
		user, err := api.UserDetails(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("не авторизован")
			return nil
		}
		return printJSON(user)
	case "product":
		if len(args) < 1 {
			return fmt.Errorf("нужен ID товара")
		}
		product, err := api.ProductDetails(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(product)
	case "order":
		if len(args) < 1 {
			return fmt.Errorf("нужен токен заказа")
		}
		order, err := api.OrderDetails(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(order)
	case "watch-product":
		if len(args) < 1 {
			return fmt.Errorf("нужен ID товара")
		}
		return runWatchProduct(ctx, api, args[0])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("неизвестная команда: %s", cmd)
	}
}

// runLogin запрашивает учётные данные и выполняет вход.
// Пароль читается без эха; при запуске не из терминала — обычной строкой
// (например при передаче через pipe в скриптах).
func runLogin(ctx context.Context, api *saleor.API, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("ошибка чтения email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	var password string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Пароль: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		password = string(raw)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	payload, err := api.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	if payload.User != nil {
		fmt.Printf("Вход выполнен: %s\n", payload.User.Email)
	} else {
		fmt.Println("Вход выполнен")
	}
	return nil
}

// runWatchProduct печатает карточку товара при каждом обновлении
// до отмены контекста.
func runWatchProduct(ctx context.Context, api *saleor.API, id string) error {
	watcher := api.WatchProductDetails(ctx, id, saleor.WatchCallbacks[*saleor.Product]{
		OnUpdate: func(product *saleor.Product) {
			if product == nil {
				fmt.Println("товар не найден")
				return
			}
			_ = printJSON(product)
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("Ошибка наблюдаемого запроса")
		},
		OnComplete: func() {
			logger.Info().Msg("Начальная загрузка завершена")
		},
	})
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
