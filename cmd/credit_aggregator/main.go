package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/app/service"
	"credit_aggregator/internal/infrastructure/addressloader"
	"credit_aggregator/internal/infrastructure/configloader"
	"credit_aggregator/internal/infrastructure/explorer"
	"credit_aggregator/internal/infrastructure/httpclient"
	clientprovider "credit_aggregator/internal/infrastructure/network/client"
	networkdefinition "credit_aggregator/internal/infrastructure/network/definition"
	"credit_aggregator/internal/infrastructure/protocol/aave"
	"credit_aggregator/internal/infrastructure/protocol/morpho"
	"credit_aggregator/internal/infrastructure/restapi"
	"credit_aggregator/internal/pkg/logger"
	"credit_aggregator/internal/pkg/metrics"
	"credit_aggregator/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

func main() {
	addressesPath := flag.String("addresses", "", "score every address in this file, print JSON and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to load .env: %v\n", err)
	}

	configPath := utils.GetEnv("CONFIG_PATH", defaultConfigPath)
	cfg, err := configloader.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load config %s: %v\n", configPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.Init(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	metrics.MustRegister()
	appLogger := logger.NewSlogAdapter()
	logger.Info("Сервис кредитного скоринга запускается...", "config", configPath)
	logger.Info("Установлен лимит параллельных горутин", "количество", cfg.Performance.MaxConcurrentRoutines)

	creditService := buildCreditService(cfg, appLogger, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *addressesPath != "" {
		if err := runBatch(ctx, creditService, *addressesPath, appLogger); err != nil {
			logger.Fatal("Пакетная обработка завершилась ошибкой", "ошибка", err)
		}
		return
	}

	serve(ctx, cfg, creditService, appLogger, zapLogger)
}

func buildCreditService(cfg *configloader.Config, appLogger port.Logger, zapLogger *zap.Logger) port.CreditService {
	netDefProvider := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg)
	explorerProvider := explorer.NewClientProvider(cfg.Explorer, zapLogger)
	clientProvider := clientprovider.NewEVMClientProvider(cfg, appLogger.Info, appLogger.Error)

	var priceService port.TokenPriceService
	if cfg.TokenPriceSvc.IsEnabled() {
		dexScreenerClient := httpclient.NewDEXScreenerClient(
			cfg.DEXScreener.BaseURL,
			time.Duration(cfg.DEXScreener.RequestTimeoutMillis)*time.Millisecond,
			zapLogger.Named("DEXScreenerAPIClient"),
			cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
		)
		priceService = service.NewTokenPriceService(
			dexScreenerClient,
			appLogger,
			time.Duration(cfg.TokenPriceSvc.CacheTTLMinutes)*time.Minute,
			cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
			cfg.Performance.MaxConcurrentRoutines,
		)
		logger.Info("TokenPriceService инициализирован.")
	} else {
		logger.Warn("TokenPriceService отключен, стоимость токенов в USD будет нулевой.")
	}

	var adapters []port.ProtocolAdapter
	if cfg.Protocols.Aave.IsEnabled() {
		adapters = append(adapters, aave.NewAdapter(aave.Config{
			Networks:         netDefProvider,
			Explorers:        explorerProvider,
			Clients:          clientProvider,
			Logger:           logger.NewSlogAdapter("protocol", "aave"),
			FallbackOnError:  cfg.Protocols.Aave.FallbackOnError,
			TransactionLimit: cfg.Explorer.TransactionLimit,
			MaxConcurrency:   cfg.Performance.MaxConcurrentRoutines,
		}))
	}
	if cfg.Protocols.Morpho.IsEnabled() {
		adapters = append(adapters, morpho.NewAdapter(morpho.Config{
			Networks:         netDefProvider,
			Explorers:        explorerProvider,
			Clients:          clientProvider,
			Logger:           logger.NewSlogAdapter("protocol", "morpho"),
			FallbackOnError:  cfg.Protocols.Morpho.FallbackOnError,
			TransactionLimit: cfg.Explorer.TransactionLimit,
			MaxConcurrency:   cfg.Performance.MaxConcurrentRoutines,
		}))
	}
	logger.Info("Протокольные адаптеры инициализированы.", "количество", len(adapters))

	fetcher := service.NewChainDataFetcher(explorerProvider, priceService, appLogger, cfg.Explorer.TransactionLimit)
	return service.NewCreditService(
		netDefProvider,
		fetcher,
		adapters,
		service.NewCreditScoringEngine(time.Now),
		appLogger,
		cfg.Performance.MaxConcurrentRoutines,
		time.Duration(cfg.Performance.ChainFetchTimeoutSeconds)*time.Second,
	)
}

func runBatch(ctx context.Context, creditService port.CreditService, path string, appLogger port.Logger) error {
	addresses, err := addressloader.NewAddressFileLoader(path, appLogger.Info).GetAddresses()
	if err != nil {
		return err
	}

	result := creditService.AggregateBatch(ctx, addresses)
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode batch result: %w", err)
	}
	if _, err := fmt.Fprintln(os.Stdout, string(out)); err != nil {
		return err
	}
	logger.Info("Пакетная обработка завершена", "оценено", len(result.Results), "ошибок", len(result.Errors))
	return nil
}

func serve(ctx context.Context, cfg *configloader.Config, creditService port.CreditService, appLogger port.Logger, zapLogger *zap.Logger) {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := restapi.NewCreditHandler(creditService, cfg.Server.MaxBatchSize, appLogger)
	router := restapi.SetupRouter(handler, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("Запуск HTTP сервера", "адрес", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Не удалось запустить HTTP сервер", "ошибка", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал завершения. Завершение работы HTTP сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при Graceful Shutdown HTTP сервера", "ошибка", err)
		return
	}
	logger.Info("HTTP сервер успешно остановлен.")
}
