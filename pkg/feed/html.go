package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
)

// maxNotesLength caps the markdown kept from a recap
const maxNotesLength = 4000

// ParseBoxscoreHTML reads a gamecenter page. Pages that embed the landing document in
// their __NEXT_DATA__ script are parsed from that; anything else must carry a
// table.linescore with the away team on the first body row and the home team on the
// second.
func ParseBoxscoreHTML(r io.Reader) (hockey.RawGame, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return hockey.RawGame{}, fmt.Errorf("error parsing HTML: %w", err)
	}

	if script := doc.Find("script#__NEXT_DATA__").First(); script.Length() > 0 {
		var next struct {
			Props struct {
				PageProps struct {
					Game json.RawMessage `json:"game"`
				} `json:"pageProps"`
			} `json:"props"`
		}
		if err := json.Unmarshal([]byte(script.Text()), &next); err != nil {
			return hockey.RawGame{}, fmt.Errorf("error parsing __NEXT_DATA__: %w", err)
		}
		if len(next.Props.PageProps.Game) > 0 {
			return ParseLanding(next.Props.PageProps.Game)
		}
		logger.Debug("__NEXT_DATA__ has no game, falling back to the linescore table")
	}
	return parseLinescoreTable(doc)
}

func parseLinescoreTable(doc *goquery.Document) (hockey.RawGame, error) {
	table := doc.Find("table.linescore").First()
	if table.Length() == 0 {
		return hockey.RawGame{}, fmt.Errorf("could not find a linescore table")
	}

	raw := hockey.RawGame{
		ID:       table.AttrOr("data-game-id", ""),
		Date:     table.AttrOr("data-date", ""),
		Season:   hockey.NormaliseSeason(table.AttrOr("data-season", "")),
		GameType: hockey.GameType(table.AttrOr("data-game-type", "")),
	}

	// column index -> model period number, 0 for columns that are not periods
	var columns []int
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		columns = append(columns, headerPeriod(strings.TrimSpace(th.Text())))
	})

	rows := table.Find("tbody tr")
	if rows.Length() != 2 {
		return raw, fmt.Errorf("linescore table has %d team rows, expected 2", rows.Length())
	}
	goals := [2]map[int]int{{}, {}}
	var teams [2]string
	var cellErr error
	rows.Each(func(side int, tr *goquery.Selection) {
		tr.Find("td").Each(func(col int, td *goquery.Selection) {
			text := strings.TrimSpace(td.Text())
			if col == 0 {
				teams[side] = text
				if code, ok := ResolveTeamCode(text); ok {
					teams[side] = code
				}
				return
			}
			if col >= len(columns) || columns[col] == 0 || text == "" || text == "-" {
				return
			}
			n, err := strconv.Atoi(text)
			if err != nil {
				if cellErr == nil {
					cellErr = fmt.Errorf("bad goal count %q for %s: %w", text, teams[side], err)
				}
				return
			}
			goals[side][columns[col]] = n
		})
	})
	if cellErr != nil {
		return raw, cellErr
	}
	raw.AwayTeam, raw.HomeTeam = teams[0], teams[1]

	for p := hockey.FirstPeriod; p <= hockey.ShootoutPeriod; p++ {
		away, aok := goals[0][p]
		home, hok := goals[1][p]
		if !aok && !hok {
			continue
		}
		raw.Periods = append(raw.Periods, hockey.RawPeriod{Number: p, HomeGoals: home, AwayGoals: away})
	}

	doc.Find("ul.empty-net li").Each(func(_ int, li *goquery.Selection) {
		p, err := strconv.Atoi(li.AttrOr("data-period", ""))
		if err != nil {
			logger.Warn("ignoring empty net goal without a period", raw.ID)
			return
		}
		code := li.AttrOr("data-team", "")
		if resolved, ok := ResolveTeamCode(code); ok {
			code = resolved
		}
		raw.EmptyNetGoals = append(raw.EmptyNetGoals, hockey.RawEmptyNetGoal{Period: p, TeamCode: code})
	})
	return raw, nil
}

func headerPeriod(h string) int {
	switch strings.ToUpper(h) {
	case "1", "1ST":
		return 1
	case "2", "2ND":
		return 2
	case "3", "3RD":
		return 3
	case "OT":
		return hockey.OvertimePeriod
	case "SO":
		return hockey.ShootoutPeriod
	}
	return 0
}

// RecapMarkdown converts the article of a recap page to markdown for Game.Notes
func RecapMarkdown(page []byte, domain string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}
	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	content.Find("script, style, nav, aside").Remove()
	html, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("failed to render recap: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(html, converter.WithDomain(domain))
	if err != nil {
		return "", fmt.Errorf("failed to convert recap to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	if len(markdown) > maxNotesLength {
		markdown = markdown[:maxNotesLength] + "\n\n... (recap truncated)"
	}
	return markdown, nil
}
