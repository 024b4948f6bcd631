// seed-orders inserts a couple of manual test customers so the chat and
// broadcast views have someone to talk to before the first feed sync.
package main

import (
	"context"
	"log/slog"
	"os"

	"wabridge/internal/store"
	"wabridge/internal/store/sqlite"
	"wabridge/internal/util"
)

func main() {
	h := slog.NewTextHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(h))

	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "whatsapp.db"
	}

	db, err := sqlite.Open(path)
	if err != nil {
		slog.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := sqlite.Migrate(ctx, db); err != nil {
		slog.Error("db migrate failed", "err", err)
		os.Exit(1)
	}
	st := sqlite.New(db)

	seed := []store.OrderUpsert{
		{Phone: "918013508258", CustomerName: "Test Customer 1", OrderNumber: "M-1001", Date: util.ISONow()},
		{Phone: "918272953014", CustomerName: "Test Customer 2", OrderNumber: "M-1002", Date: util.ISONow()},
	}

	for _, o := range seed {
		id, err := st.InsertOrder(ctx, o)
		if err != nil {
			slog.Error("seed insert failed", "customer", o.CustomerName, "err", err)
			os.Exit(1)
		}
		slog.Info("seeded order", "id", id, "customer", o.CustomerName, "phone", o.Phone)
	}
}
