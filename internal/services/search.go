package services

import (
	"sort"
	"strings"

	"github.com/balkashynov/saj/internal/models"
	"github.com/balkashynov/saj/internal/parser"
)

// Match ranks, highest first
const (
	matchNone = iota
	matchFuzzy
	matchSuffix
	matchPrefix
	matchExact
)

// ClientHit is a client found by Search
type ClientHit struct {
	Client models.Client
	Rank   int
}

// ProcessHit is a process found by Search
type ProcessHit struct {
	Process    models.Process
	ClientName string
	Rank       int
}

// SearchResult holds the hits of one query
type SearchResult struct {
	Query     string
	Clients   []ClientHit
	Processes []ProcessHit
}

// Count returns the number of hits
func (r SearchResult) Count() int {
	return len(r.Clients) + len(r.Processes)
}

// Search matches query against clients (name, CPF/CNPJ, email, phone) and processes
// (number, description, status, client name). Matching is case and accent
// insensitive and ranked exact > prefix > suffix > contains.
func Search(query string, clients []models.Client, processes []models.Process) SearchResult {
	result := SearchResult{Query: query}
	needle := parser.Fold(query)
	if needle == "" {
		return result
	}

	for _, c := range clients {
		if rank := bestRank(needle, c.Name, c.CpfCnpj, c.Email, c.Phone); rank > matchNone {
			result.Clients = append(result.Clients, ClientHit{Client: c, Rank: rank})
		}
	}

	for _, p := range processes {
		clientName := ClientName(clients, p.ClientID)
		if rank := bestRank(needle, p.Number, p.Description, p.Status, clientName); rank > matchNone {
			result.Processes = append(result.Processes, ProcessHit{Process: p, ClientName: clientName, Rank: rank})
		}
	}

	sort.SliceStable(result.Clients, func(i, j int) bool { return result.Clients[i].Rank > result.Clients[j].Rank })
	sort.SliceStable(result.Processes, func(i, j int) bool { return result.Processes[i].Rank > result.Processes[j].Rank })
	return result
}

func bestRank(needle string, fields ...string) int {
	best := matchNone
	for _, field := range fields {
		if field == "" || field == UnknownClient {
			continue
		}
		if rank := rankOf(needle, parser.Fold(field)); rank > best {
			best = rank
		}
	}
	return best
}

func rankOf(needle, haystack string) int {
	switch {
	case haystack == needle:
		return matchExact
	case strings.HasPrefix(haystack, needle):
		return matchPrefix
	case strings.HasSuffix(haystack, needle):
		return matchSuffix
	case strings.Contains(haystack, needle):
		return matchFuzzy
	default:
		return matchNone
	}
}
