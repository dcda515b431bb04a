// Package resources is the catalogue of list endpoints that the console and the CLI can browse and export.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/client"
	"github.com/diego00711/inksa-admin-sub000/internal/export"
)

// Resource describes one list endpoint
type Resource struct {
	Name string
	Path string

	// Family is set for resources served through the endpoint resolver; Suffix is then appended to
	// the winning prefix instead of using Path
	Family     string
	Candidates []string
	Suffix     string

	// Filters are the query parameters passed through to the API, in this order
	Filters []string

	ExportPrefix string
	Columns      []export.Column
}

var paging = []string{"page", "per_page"}

func filters(keys ...string) []string {
	return append(keys, paging...)
}

var catalogue = map[string]Resource{
	"users": {
		Name:         "users",
		Path:         "/api/admin/users",
		Filters:      filters("search", "role", "status"),
		ExportPrefix: "usuarios",
		Columns: []export.Column{
			{Header: "ID", Path: "id"},
			{Header: "Nome", Path: "name"},
			{Header: "Email", Path: "email"},
			{Header: "Telefone", Path: "phone"},
			{Header: "Perfil", Path: "role"},
			{Header: "Status", Path: "status"},
			{Header: "Criado em", Path: "created_at"},
		},
	},
	"restaurants": {
		Name:         "restaurants",
		Path:         "/api/admin/restaurants",
		Filters:      filters("search", "status", "category"),
		ExportPrefix: "restaurantes",
		Columns: []export.Column{
			{Header: "ID", Path: "id"},
			{Header: "Nome", Path: "name"},
			{Header: "Email", Path: "owner_email"},
			{Header: "Categoria", Path: "category"},
			{Header: "Status", Path: "status"},
			{Header: "Avaliação", Path: "rating"},
			{Header: "Criado em", Path: "created_at"},
		},
	},
	"banners": {
		Name:         "banners",
		Path:         "/api/admin/banners",
		Filters:      []string{"active"},
		ExportPrefix: "banners",
		Columns: []export.Column{
			{Header: "ID", Path: "id"},
			{Header: "Título", Path: "title"},
			{Header: "Posição", Path: "position"},
			{Header: "Ativo", Path: "is_active"},
			{Header: "Início", Path: "starts_at"},
			{Header: "Fim", Path: "ends_at"},
		},
	},
	"payouts": {
		Name:         "payouts",
		Path:         "/api/admin/payouts",
		Filters:      filters("status", "courier_id", "restaurant_id", "from", "to"),
		ExportPrefix: "repasses",
		Columns: []export.Column{
			{Header: "ID", Path: "id"},
			{Header: "Tipo", Path: "recipient_type"},
			{Header: "Beneficiário", Path: "recipient_name"},
			{Header: "Valor", Path: "amount"},
			{Header: "Status", Path: "status"},
			{Header: "Criado em", Path: "created_at"},
			{Header: "Pago em", Path: "paid_at"},
		},
	},
	"invoices": {
		Name:         "invoices",
		Path:         "/api/admin/invoices",
		Filters:      filters("status", "restaurant_id", "from", "to"),
		ExportPrefix: "faturas",
		Columns: []export.Column{
			{Header: "Número", Path: "number"},
			{Header: "Restaurante", Path: "restaurant_name"},
			{Header: "Valor", Path: "amount"},
			{Header: "Status", Path: "status"},
			{Header: "Emitida em", Path: "issued_at"},
			{Header: "Vencimento", Path: "due_at"},
		},
	},
	"logs": {
		Name:         "logs",
		Path:         "/api/admin/logs",
		Filters:      filters("level", "actor", "action", "from", "to"),
		ExportPrefix: "logs",
		Columns: []export.Column{
			{Header: "Data", Path: "created_at"},
			{Header: "Nível", Path: "level"},
			{Header: "Ação", Path: "action"},
			{Header: "Usuário", Path: "actor"},
			{Header: "Mensagem", Path: "message"},
		},
	},
	"tickets": {
		Name:         "tickets",
		Path:         "/api/admin/support/tickets",
		Filters:      filters("status", "priority", "search"),
		ExportPrefix: "chamados",
		Columns: []export.Column{
			{Header: "ID", Path: "id"},
			{Header: "Assunto", Path: "subject"},
			{Header: "Solicitante", Path: "requester_name"},
			{Header: "Email", Path: "requester_email"},
			{Header: "Prioridade", Path: "priority"},
			{Header: "Status", Path: "status"},
			{Header: "Aberto em", Path: "created_at"},
		},
	},
	"transactions": {
		Name:         "transactions",
		Family:       client.FinanceFamily,
		Candidates:   client.FinanceCandidates,
		Suffix:       "transactions",
		Filters:      filters("type", "status", "from", "to"),
		ExportPrefix: "transacoes",
		Columns: []export.Column{
			{Header: "ID", Path: "id"},
			{Header: "Tipo", Path: "type"},
			{Header: "Descrição", Path: "description"},
			{Header: "Valor", Path: "amount"},
			{Header: "Status", Path: "status"},
			{Header: "Data", Path: "created_at"},
		},
	},
}

// Lookup returns the resource with the given name
func Lookup(name string) (Resource, bool) {
	r, ok := catalogue[name]
	return r, ok
}

// Names returns the catalogue names in alphabetical order
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Query keeps the supported filters from values, in catalogue order. Repeated values are comma joined.
func (r Resource) Query(values url.Values) client.Query {
	q := make(client.Query, 0, len(r.Filters))
	for _, key := range r.Filters {
		if v, ok := values[key]; ok {
			q = q.Add(key, v)
		}
	}
	return q
}

// List fetches the records of the resource
func (r Resource) List(ctx context.Context, c *client.Client, values url.Values) ([]json.RawMessage, error) {
	q := r.Query(values)

	if r.Family == "" {
		return c.ListRaw(ctx, r.Path, q)
	}

	p, err := c.Resolve(ctx, client.Resolution{
		Family:     r.Family,
		Candidates: r.Candidates,
		Suffix:     r.Suffix,
		Request: client.Request{
			Method:       http.MethodGet,
			Query:        q,
			AuthRequired: true,
		},
		Default: r.demo,
	})
	if err != nil {
		return nil, err
	}

	rows, err := client.UnwrapCollection(p)
	if err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", r.Name, err)
	}
	return rows, nil
}

func (r Resource) demo() (any, error) {
	if r.Family == client.FinanceFamily && r.Suffix == "transactions" {
		return client.DemoTransactions(time.Now(), 20), nil
	}
	return []any{}, nil
}

// Export fetches the records and writes them as CSV
func (r Resource) Export(ctx context.Context, c *client.Client, values url.Values, w io.Writer) (int, error) {
	rows, err := r.List(ctx, c, values)
	if err != nil {
		return 0, err
	}
	if err := export.WriteCSV(w, r.Columns, rows); err != nil {
		return 0, fmt.Errorf("writing %s export: %w", r.Name, err)
	}
	return len(rows), nil
}

// Filename is the download name of an export made at t
func (r Resource) Filename(t time.Time) string {
	return export.Filename(r.ExportPrefix, t)
}
