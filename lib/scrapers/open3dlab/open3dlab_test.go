package open3dlab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const listingPage = `
<html><body>
<select id="id_category">
	<option value="-1">---------</option>
	<option value="7">Maya Rigs</option>
</select>
<select id="id_license">
	<option value="-1">---------</option>
	<option value="2">CC0</option>
</select>
<div class="content-container">
	<div class="entry-content">
		<div class="entry-list">
			<div class="entry">
				<div class="entry__heading"><a href="/project/55-lamp"><img src="/thumbs/55.jpg"></a></div>
				<div class="entry__body"><div class="entry__title"><a href="/project/55-lamp">Lamp</a></div></div>
				<div class="entry__tags"><span class="entry__tag">Maya Rigs</span></div>
			</div>
		</div>
	</div>
	<ul class="pagination"><li class="active"><a>1</a></li></ul>
</div>
</body></html>`

const detailPage = `
<html><body>
<div class="container"><h1 id="file_title">Lamp</h1></div>
<div class="content-container">
	<div class="main-upload">
		<div class="panel"><div class="panel__body"><p>Shines bright.</p></div></div>
		<table><tbody>
			<tr>
				<td><a href="/project/download/3">lamp</a></td>
				<td></td>
				<td>5 MB</td>
			</tr>
		</tbody></table>
		<div class="comments">
			<div class="comment">
				<div class="comment__meta"><div class="comment__meta-left">
					<span class="username">alyx</span> posted on January 5, 2021, 9:30 a.m.
				</div></div>
				<div class="comment__body">
					<img class="comment_avatar" src="/avatars/alyx.png">
					<div class="comment__content"><div class="content">love it</div></div>
				</div>
			</div>
		</div>
	</div>
	<div class="side-upload">
		<div class="panel">
			<div class="panel__body"><img src="/thumbs/55.jpg"></div>
			<div class="panel__footer">
				<dl><dd>a</dd></dl><dl><dd>b</dd></dl><dl><dd>c</dd></dl><dl><dd>d</dd></dl>
				<dl><dt>Category</dt><dd>Maya Rigs</dd></dl>
			</div>
		</div>
	</div>
</div>
</body></html>`

const downloadPage = `
<html><body>
<div class="content-container"><div class="main-upload">
	<div class="project-description-div">
		<p><a href="https://files.example.com/lamp_v2.ma?token=y">Download</a></p>
	</div>
</div></div>
</body></html>`

func setupClient(t *testing.T) *Client {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/open3dlab")
	t.Cleanup(cleanup)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("GET /project/55", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailPage)
	})
	mux.HandleFunc("GET /project/download/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, downloadPage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func TestListModels(t *testing.T) {
	client := setupClient(t)

	listing, err := client.ListModels(context.Background(), catalog.Query{})
	require.NoError(t, err)

	require.Len(t, listing.Models, 1)
	require.Equal(t, "55", listing.Models[0].ID)
	require.Equal(t, ".ma", listing.Models[0].Extension)
	require.False(t, listing.Models[0].MatureContent)
	require.Equal(t, 1, listing.TotalPages)
	require.Len(t, listing.Categories, 1)
	require.Len(t, listing.Licenses, 1)
}

func TestGetModel(t *testing.T) {
	client := setupClient(t)

	detail, err := client.GetModel(context.Background(), "55")
	require.NoError(t, err)

	require.Equal(t, "Lamp", detail.Name)
	require.Equal(t, ".ma", detail.Extension)

	// the download row carries no filename, so it comes off the
	// terminal URL instead
	require.Equal(t, []catalog.DownloadLink{{
		URL:      "https://files.example.com/lamp_v2.ma?token=y",
		Filename: "lamp_v2.ma",
		SizeText: "5 MB",
	}}, detail.DownloadLinks)

	require.Equal(t, []catalog.Comment{{
		Username:  "alyx",
		AvatarURL: "/avatars/alyx.png",
		Message:   "love it",
		PostedAt:  time.Date(2021, 1, 5, 9, 30, 0, 0, time.UTC).UnixMilli(),
	}}, detail.Comments)
}
