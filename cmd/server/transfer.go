package main

import (
	"github.com/iho/ledgersaga/internal/adapter/consumer"
	httpAdapter "github.com/iho/ledgersaga/internal/adapter/http"
	"github.com/iho/ledgersaga/internal/adapter/http/handler"
	postgresRepo "github.com/iho/ledgersaga/internal/adapter/repository/postgres"
	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// buildTransfer wires the transfer role: transaction requests over HTTP,
// completions from the ledger, and the account replica.
func buildTransfer(d deps) *service {
	transactions := postgresRepo.NewTransactionRepository(d.pool)
	replicas := postgresRepo.NewAccountReplicaRepository(d.pool)
	outbox := postgresRepo.NewOutboxRepository(d.pool)
	writer := usecase.NewOutboxWriter(outbox, d.ids, nil)

	transactionUC := usecase.NewTransactionUseCase(d.txMgr, d.guard, transactions, replicas, writer, d.ids, d.metrics, nil, d.slog)
	replicaUC := usecase.NewReplicaUseCase(d.guard, replicas, d.metrics, nil, d.slog)
	outboxUC := usecase.NewOutboxUseCase(outbox, postgresRepo.NewProcessedEventRepository(d.pool), nil, d.slog)

	completions := consumer.NewCompletionHandler(transactionUC, d.log.With().Str("component", "completions").Logger())
	accountEvents := consumer.NewAccountEventHandler(replicaUC, d.log.With().Str("component", "account_events").Logger())

	return &service{
		routes:   routesFor(nil, handler.NewTransactionHandler(transactionUC), handler.NewReplicaHandler(replicaUC)),
		outbox:   outbox,
		outboxUC: outboxUC,
		bindings: []binding{
			{topic: domain.TopicTransactionCompleted, handler: completions},
			{topic: domain.TopicAccountCreated, handler: accountEvents},
			{topic: domain.TopicAccountUpdated, handler: accountEvents},
		},
	}
}

func routesFor(accounts *handler.AccountHandler, transactions *handler.TransactionHandler, replicas *handler.ReplicaHandler) httpAdapter.RouterConfig {
	return httpAdapter.RouterConfig{
		AccountHandler:     accounts,
		TransactionHandler: transactions,
		ReplicaHandler:     replicas,
	}
}
