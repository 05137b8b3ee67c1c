package main

import (
	"github.com/iho/ledgersaga/internal/adapter/consumer"
	"github.com/iho/ledgersaga/internal/adapter/http/handler"
	postgresRepo "github.com/iho/ledgersaga/internal/adapter/repository/postgres"
	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// buildLedger wires the ledger role: accounts over HTTP, and the transfer
// engine behind transaction.requested.
func buildLedger(d deps) *service {
	accounts := postgresRepo.NewAccountRepository(d.pool)
	outbox := postgresRepo.NewOutboxRepository(d.pool)
	writer := usecase.NewOutboxWriter(outbox, d.ids, nil)

	accountUC := usecase.NewAccountUseCase(d.txMgr, accounts, writer, d.ids, nil, d.slog)
	transferUC := usecase.NewTransferUseCase(d.guard, accounts, writer, d.metrics, nil, d.slog)
	outboxUC := usecase.NewOutboxUseCase(outbox, postgresRepo.NewProcessedEventRepository(d.pool), nil, d.slog)

	requests := consumer.NewTransferRequestHandler(transferUC, d.log.With().Str("component", "transfer_requests").Logger())

	return &service{
		routes:   routesFor(handler.NewAccountHandler(accountUC), nil, nil),
		outbox:   outbox,
		outboxUC: outboxUC,
		bindings: []binding{
			{topic: domain.TopicTransactionRequested, handler: requests, recoverer: requests},
		},
	}
}
