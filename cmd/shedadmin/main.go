// Command shedadmin prints the lobby and match history of a running shed
// server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"shed/internal/game"
	"shed/internal/session"
	"shed/internal/storage"
)

func main() {
	serverFlag := flag.String("server", "http://localhost:8080", "base URL of the shed server")
	limitFlag := flag.Int("limit", 20, "number of results to show")
	timeoutFlag := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS] games | sessions | results [playerId]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	c := &client{base: strings.TrimRight(*serverFlag, "/"), http: http.DefaultClient}
	if err := run(ctx, c, os.Stdout, flag.Args(), *limitFlag); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client, w io.Writer, args []string, limit int) error {
	switch args[0] {
	case "games":
		var games []game.GameInfo
		if err := c.get(ctx, "/api/games", &games); err != nil {
			return err
		}
		return render(w, gamesTable(games))

	case "sessions":
		var infos []session.Info
		if err := c.get(ctx, "/api/sessions", &infos); err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(w, pterm.Info.Sprint("no active sessions"))
			return nil
		}
		return render(w, sessionsTable(infos, time.Now()))

	case "results":
		path := "/api/results?limit=" + strconv.Itoa(limit)
		if len(args) > 1 {
			path = "/api/results/player/" + url.PathEscape(args[1])
		}
		var rows []storage.ResultRow
		if err := c.get(ctx, path, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(w, pterm.Info.Sprint("no finished matches"))
			return nil
		}
		return render(w, resultsTable(rows))

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type client struct {
	base string
	http *http.Client
}

func (c *client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return fmt.Errorf("GET %s: %s", path, body.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func render(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func gamesTable(games []game.GameInfo) pterm.TableData {
	data := pterm.TableData{{"Name", "Players", "Description"}}
	for _, g := range games {
		players := strconv.Itoa(g.MinPlayers)
		if g.MaxPlayers != g.MinPlayers {
			players += "-" + strconv.Itoa(g.MaxPlayers)
		}
		data = append(data, []string{g.Name, players, g.Description})
	}
	return data
}

func sessionsTable(infos []session.Info, now time.Time) pterm.TableData {
	data := pterm.TableData{{"Code", "Game", "Status", "Players", "Connected", "Age"}}
	for _, s := range infos {
		data = append(data, []string{
			s.Code,
			s.GameType,
			string(s.Status),
			strings.Join(s.Players, ", "),
			strconv.Itoa(len(s.Connected)),
			now.Sub(s.CreatedAt).Truncate(time.Second).String(),
		})
	}
	return data
}

func resultsTable(rows []storage.ResultRow) pterm.TableData {
	data := pterm.TableData{{"Session", "Game", "Winner", "Loser", "Cards left", "Finished"}}
	for _, r := range rows {
		data = append(data, []string{
			r.SessionCode,
			r.GameType,
			r.WinnerID,
			r.LoserID,
			strconv.Itoa(r.LoserCards),
			r.FinishedAt.Local().Format(time.DateTime),
		})
	}
	return data
}
