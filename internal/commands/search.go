package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/saj/internal/services"
)

type searchJSON struct {
	Query     string           `json:"query"`
	Count     int              `json:"count"`
	Clients   []clientJSON     `json:"clients"`
	Processes []processHitJSON `json:"processes"`
}

type clientJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CpfCnpj string `json:"cpfCnpj"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type processHitJSON struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	ClientName string `json:"clientName"`
	Status     string `json:"status"`
}

func newSearchCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search clients and processes across all fields",
		Long: `Search clients and processes with ranked matching:
- Exact match (highest priority)
- Prefix match
- Suffix match
- Contains (lowest priority)

Search ignores case and accents. Clients match on name, CPF/CNPJ, email and
phone; processes on number, description, status and client name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			query := strings.Join(args, " ")

			lk, err := loadLookups(cmd.Context(), a.svc, lookupNeeds{clients: true, processes: true})
			if err != nil {
				return failure(err, msgLoadFailed)
			}
			result := services.Search(query, lk.Clients, lk.Processes)

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, toSearchJSON(result))
			}

			fmt.Fprintf(out, "Resultados para '%s' (%d encontrados):\n", query, result.Count())
			if result.Count() == 0 {
				fmt.Fprintln(out, "Nada encontrado.")
				return nil
			}

			if len(result.Clients) > 0 {
				fmt.Fprintln(out, "\nClientes")
				rows := make([][]string, 0, len(result.Clients))
				for _, hit := range result.Clients {
					cl := hit.Client
					rows = append(rows, []string{cl.ID, truncate(cl.Name, 32), cl.CpfCnpj, cl.Email})
				}
				printTable(out, []string{"ID", "Nome", "CPF/CNPJ", "Email"}, rows)
			}
			if len(result.Processes) > 0 {
				fmt.Fprintln(out, "\nProcessos")
				rows := make([][]string, 0, len(result.Processes))
				for _, hit := range result.Processes {
					p := hit.Process
					rows = append(rows, []string{p.ID, p.Number, truncate(hit.ClientName, 28), p.Status})
				}
				printTable(out, []string{"ID", "Número", "Cliente", "Status"}, rows)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func toSearchJSON(result services.SearchResult) searchJSON {
	out := searchJSON{
		Query:     result.Query,
		Count:     result.Count(),
		Clients:   []clientJSON{},
		Processes: []processHitJSON{},
	}
	for _, hit := range result.Clients {
		cl := hit.Client
		out.Clients = append(out.Clients, clientJSON{ID: cl.ID, Name: cl.Name, CpfCnpj: cl.CpfCnpj, Email: cl.Email, Phone: cl.Phone})
	}
	for _, hit := range result.Processes {
		p := hit.Process
		out.Processes = append(out.Processes, processHitJSON{ID: p.ID, Number: p.Number, ClientName: hit.ClientName, Status: p.Status})
	}
	return out
}
