package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the part of a pgx pool the output needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresOutput inserts each event as a row of the fact table for its topic. Columns
// are the event's JSON keys in snake case, so omitted fields stay NULL.
type PostgresOutput struct {
	db     Execer
	closer func()
}

func NewPostgresOutput(db Execer, closer func()) *PostgresOutput {
	return &PostgresOutput{db: db, closer: closer}
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}

	table := topicToTable(topic)
	cols, vals, placeholders := buildInsertComponents(event)
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		cols,
		placeholders,
	)

	if _, err := p.db.Exec(context.Background(), query, vals...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}

func topicToTable(topic string) string {
	tableMap := map[string]string{
		TopicCart:      "fact_cart_activity",
		TopicFavorites: "fact_favorite_activity",
		TopicOrders:    "fact_order",
	}
	if table, ok := tableMap[topic]; ok {
		return table
	}
	return "fact_" + strings.TrimSuffix(topic, "_events")
}

func buildInsertComponents(event map[string]interface{}) (string, []interface{}, string) {
	keys := make([]string, 0, len(event))
	for k := range event {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	for i, key := range keys {
		// encoding/json decodes every number as float64; whole values go in as integers
		switch v := event[key].(type) {
		case float64:
			if v == float64(int64(v)) && key != "amount" {
				values = append(values, int64(v))
			} else {
				values = append(values, v)
			}
		default:
			values = append(values, v)
		}
		columns = append(columns, pgx.Identifier{snakeCaseKey(key)}.Sanitize())
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	return strings.Join(columns, ", "), values, strings.Join(placeholders, ", ")
}

func snakeCaseKey(key string) string {
	var result strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}
