package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lzande/pixel-sentinel/internal/store"
)

// GroupMembership is one group with its members for the report
type GroupMembership struct {
	GroupName string
	Members   []store.Member
}

// SystemReport holds everything the HTML report renders
type SystemReport struct {
	GeneratedAt time.Time
	TotalFiles  string
	Groups      []store.Group
	Membership  []GroupMembership
	Albums      []store.AlbumWithGroup
}

// GatherSystemReport collects report data from the store
func GatherSystemReport(db *store.Store) (*SystemReport, error) {
	r := &SystemReport{GeneratedAt: time.Now()}

	count, err := db.CountFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	r.TotalFiles = humanize.Comma(int64(count))

	r.Groups, err = db.GetGroups()
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	for _, g := range r.Groups {
		members, err := db.GetMembers(g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load members of %q: %w", g.Name, err)
		}
		r.Membership = append(r.Membership, GroupMembership{
			GroupName: g.Name,
			Members:   members,
		})
	}

	r.Albums, err = db.GetAlbumsWithGroups()
	if err != nil {
		return nil, fmt.Errorf("failed to load albums: %w", err)
	}

	return r, nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>PixelSentinel System Report</title>
<style>
  body {
    background-color: rgb(13 18 23);
    line-height: 1.452;
    color: #c7c7c7;
    font-family: Arial, sans-serif;
  }
  h1 { text-align: center; }
  table {
    width: 80%;
    margin: 20px auto;
    border-collapse: collapse;
  }
  th, td {
    border: 1px solid #ddd;
    padding: 8px;
    text-align: center;
    color: #c7c7c7;
  }
  th {
    background-color: rgb(13 18 23);
    font-weight: bold;
  }
  p.meta { text-align: center; color: #777; }
</style>
</head>
<body>
<h1>PixelSentinel System Report</h1>
<p class="meta">Generated {{.GeneratedAt.Format "01/02/2006 3:04 PM"}}</p>

<table>
  <tr><th>Total Files</th></tr>
  <tr><td>{{.TotalFiles}}</td></tr>
</table>

<h1>Group Information</h1>
<table>
  <tr><th>Group ID</th><th>Group Name</th></tr>
  {{range .Groups}}<tr><td>{{.ID}}</td><td>{{.Name}}</td></tr>
  {{end}}
</table>

<h1>Membership Information</h1>
{{range .Membership}}
<h1>{{.GroupName}}</h1>
<table>
  <tr><th>Member Name</th><th>Member Email</th></tr>
  {{range .Members}}<tr><td>{{.Name}}</td><td>{{.Email}}</td></tr>
  {{end}}
</table>
{{end}}

<h1>Album Information</h1>
<table>
  <tr><th>Album Name</th><th>Group Name</th></tr>
  {{range .Albums}}<tr><td>{{.Name}}</td><td>{{.GroupName}}</td></tr>
  {{end}}
</table>
</body>
</html>
`))

// WriteHTMLReport gathers the system report and writes it to outputPath
func WriteHTMLReport(db *store.Store, outputPath string) error {
	data, err := GatherSystemReport(db)
	if err != nil {
		return err
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return nil
}
