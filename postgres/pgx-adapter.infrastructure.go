package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

var _ pgx.QueryTracer = (*QueryTracer)(nil)

// QueryTracer opens a span for each query, named by its operation and table, e.g. "INSERT users"
// for the insert of a stored entity. Connect sets it on every connection.
type QueryTracer struct {
	tracer trace.Tracer
}

func NewQueryTracer(tracerProvider trace.TracerProvider) *QueryTracer {
	return &QueryTracer{tracer: tracerProvider.Tracer("github.com/go-arrower/factory/postgres")}
}

func (q *QueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	operation, table := parseQuery(data.SQL)

	attrs := []attribute.KeyValue{
		semconv.DBSystemPostgreSQL,
		semconv.DBStatementKey.String(data.SQL),
		semconv.DBOperationKey.String(operation),
		attribute.StringSlice("db.sql.args", argsToStrings(data.Args)),
	}

	if table != "" {
		attrs = append(attrs, semconv.DBSQLTableKey.String(table))
	}

	if conn != nil {
		attrs = append(attrs,
			semconv.DBNameKey.String(conn.Config().Database),
			semconv.NetPeerNameKey.String(conn.Config().Host),
			semconv.NetPeerPortKey.Int(int(conn.Config().Port)),
		)
	}

	ctx, _ = q.tracer.Start(ctx, spanName(operation, table),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx
}

func (q *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))

	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}

	span.End()
}

func spanName(operation, table string) string {
	switch {
	case operation == "":
		return "pgx"
	case table == "":
		return operation
	default:
		return operation + " " + table
	}
}

// parseQuery returns the verb of sql and the table it works on, if it is an INSERT, SELECT, UPDATE, or DELETE.
func parseQuery(sql string) (string, string) {
	words := strings.Fields(sql)
	if len(words) == 0 {
		return "", ""
	}

	operation := strings.ToUpper(words[0])

	var keyword string

	switch operation {
	case "INSERT":
		keyword = "INTO"
	case "SELECT", "DELETE":
		keyword = "FROM"
	case "UPDATE":
		return operation, tableName(words[1:])
	default:
		return operation, ""
	}

	for i, word := range words {
		if strings.EqualFold(word, keyword) {
			return operation, tableName(words[i+1:])
		}
	}

	return operation, ""
}

// tableName is the first of words without quotes or a directly following column list, e.g. users for "users"(id).
func tableName(words []string) string {
	if len(words) == 0 {
		return ""
	}

	name, _, _ := strings.Cut(words[0], "(")

	return strings.Trim(strings.ReplaceAll(name, `"`, ""), ";")
}

func argsToStrings(args []any) []string {
	s := make([]string, len(args))

	for i, v := range args {
		s[i] = fmt.Sprintf("%v", v)
	}

	return s
}
