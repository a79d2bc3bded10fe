package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, fragment string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func TestCategoriesSkipPlaceholder(t *testing.T) {
	doc := parseDoc(t, `
		<select id="id_category">
			<option value="">---------</option>
			<option value="11">Furniture</option>
			<option value="24">Characters</option>
		</select>
	`)

	categories := Categories(doc.Find("#id_category option"))

	require.Len(t, categories, 2)
	require.Equal(t, 11, categories[0].ID)
	require.Equal(t, -1, categories[0].ParentID)
	require.Equal(t, "11", categories[0].Slug)
	require.Equal(t, "Furniture", categories[0].Name)
	require.Equal(t, "Characters", categories[1].Name)
}

func TestLicensesSkipPlaceholder(t *testing.T) {
	doc := parseDoc(t, `
		<select id="id_license">
			<option value="">---------</option>
			<option value="3">CC-BY</option>
		</select>
	`)

	licenses := Licenses(doc.Find("#id_license option"))

	require.Len(t, licenses, 1)
	require.Equal(t, 3, licenses[0].ID)
	require.Equal(t, "CC-BY", licenses[0].Name)
}

func TestLastPagePrefersLastLink(t *testing.T) {
	doc := parseDoc(t, `
		<div class="pagination">
			<ul>
				<li class="active"><a>3</a></li>
				<li class="last"><a href="/?search_text=&page=7">Last</a></li>
			</ul>
		</div>
	`)

	require.Equal(t, 7, LastPage(doc.Find(".pagination")))
}

func TestLastPageFallsBackToActive(t *testing.T) {
	doc := parseDoc(t, `
		<div class="pagination">
			<ul><li class="active"><a>4</a></li></ul>
		</div>
	`)

	require.Equal(t, 4, LastPage(doc.Find(".pagination")))
}

func TestLastPageMissingPaginator(t *testing.T) {
	doc := parseDoc(t, `<div class="pagination"></div>`)

	require.Equal(t, 0, LastPage(doc.Find(".pagination")))
}

func TestEntries(t *testing.T) {
	doc := parseDoc(t, `
		<div class="content-container">
			<div class="entry-content">
				<div class="entry-list">
					<div class="entry">
						<div class="entry__heading">
							<a href="/project/31942/"><img src="https://cdn.example.com/thumb.jpg"></a>
						</div>
						<div class="entry__body">
							<div class="entry__title"><a href="/project/31942/">Stylized Couch</a></div>
						</div>
						<div class="entry__tags">
							<span class="entry__tag">Blender File</span>
							<span class="entry__tag">furniture</span>
						</div>
					</div>
				</div>
			</div>
		</div>
	`)

	entries := Entries(doc)

	require.Len(t, entries, 1)
	require.Equal(t, "31942", entries[0].ID)
	require.Equal(t, "Stylized Couch", entries[0].Name)
	require.Equal(t, "https://cdn.example.com/thumb.jpg", entries[0].ImageURL)
	require.Equal(t, "Blender File", entries[0].Category)
	require.Equal(t, []string{"Blender File", "furniture"}, entries[0].Tags)
}

func TestParseCommentDate(t *testing.T) {
	cases := []struct {
		text     string
		expected int64
	}{
		{
			text:     "January 5, 2021, 3:15 pm.",
			expected: time.Date(2021, time.January, 5, 15, 15, 0, 0, time.UTC).UnixMilli(),
		},
		{
			text:     "January 5, 2021, 3 pm.",
			expected: time.Date(2021, time.January, 5, 15, 0, 0, 0, time.UTC).UnixMilli(),
		},
		{
			text:     "Jan. 5, 2021, 3:15 p.m.",
			expected: time.Date(2021, time.January, 5, 15, 15, 0, 0, time.UTC).UnixMilli(),
		},
		{
			text:     "Nov 12 2021 1:37 pm",
			expected: time.Date(2021, time.November, 12, 13, 37, 0, 0, time.UTC).UnixMilli(),
		},
		{text: "not a date at all", expected: 0},
		{text: "", expected: 0},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, ParseCommentDate(test.text), test.text)
	}
}

const commentFragment = `
	<div class="comments">
		<div class="comment">
			<div class="comment__body">
				<img class="comment_avatar" src="https://cdn.example.com/avatar.png">
				<div class="comment__content"><div class="content">nice model</div></div>
			</div>
			<div class="comment__meta">
				<div class="comment__meta-left">%s posted on January 5, 2021, 3:15 pm.</div>
			</div>
		</div>
	</div>
`

func TestComments(t *testing.T) {
	doc := parseDoc(t, fmt.Sprintf(commentFragment, `<span class="username">modeler42</span>`))

	comments := Comments(doc)

	require.Len(t, comments, 1)
	require.Equal(t, "modeler42", comments[0].Username)
	require.Equal(t, "https://cdn.example.com/avatar.png", comments[0].AvatarURL)
	require.Equal(t, "nice model", comments[0].Message)
	require.Equal(t,
		time.Date(2021, time.January, 5, 15, 15, 0, 0, time.UTC).UnixMilli(),
		comments[0].PostedAt,
	)
}

func TestCommentsUsernameFallback(t *testing.T) {
	doc := parseDoc(t, fmt.Sprintf(commentFragment, "modeler42"))

	comments := Comments(doc)

	require.Len(t, comments, 1)
	require.Equal(t, "modeler42", comments[0].Username)
}

func TestCommentElements(t *testing.T) {
	doc := parseDoc(t, `
		<div>
			<comment-element
				username="modeler42"
				useravatar="/media/avatar.png"
				comment="great work"
				submit_date="Nov. 12, 2021, 1:37 p.m.">
			</comment-element>
		</div>
	`)

	comments := CommentElements(doc, "https://sfmlab.com")

	require.Len(t, comments, 1)
	require.Equal(t, "modeler42", comments[0].Username)
	require.Equal(t, "https://sfmlab.com/media/avatar.png", comments[0].AvatarURL)
	require.Equal(t, "great work", comments[0].Message)
	require.Equal(t,
		time.Date(2021, time.November, 12, 13, 37, 0, 0, time.UTC).UnixMilli(),
		comments[0].PostedAt,
	)
}

const downloadTableFragment = `
	<div class="content-container">
		<div class="main-upload">
			<table><tbody>
				<tr>
					<td><a href="/file/101/">couch_v2.zip</a></td>
					<td><div class="js-edit-input__wrapper"><strong>couch_v2.zip</strong></div></td>
					<td>173 MB</td>
				</tr>
				<tr>
					<td><a href="/file/102/">textures.zip</a></td>
					<td><div class="js-edit-input__wrapper"><strong>textures.zip</strong></div></td>
					<td>12 MB</td>
				</tr>
			</tbody></table>
		</div>
	</div>
`

func downloadPage(href string) string {
	return fmt.Sprintf(`
		<div class="content-container">
			<div class="main-upload">
				<div class="project-description-div">
					<p><a href="%s">download</a></p>
				</div>
			</div>
		</div>
	`, href)
}

func TestDownloadRows(t *testing.T) {
	rows := DownloadRows(parseDoc(t, downloadTableFragment))

	require.Len(t, rows, 2)
	require.Equal(t, "/file/101/", rows[0].Href)
	require.Equal(t, "couch_v2.zip", rows[0].Filename)
	require.Equal(t, "173 MB", rows[0].SizeText)
	require.Equal(t, "/file/102/", rows[1].Href)
}

func TestResolveLinks(t *testing.T) {
	rows := DownloadRows(parseDoc(t, downloadTableFragment))

	fetch := func(ctx context.Context, href string) (*goquery.Document, error) {
		return parseDoc(t, downloadPage("https://cdn.example.com"+href+"couch.zip?token=x")), nil
	}

	links, err := ResolveLinks(context.Background(), fetch, rows)
	require.NoError(t, err)

	require.Len(t, links, 2)
	require.Equal(t, "https://cdn.example.com/file/101/couch.zip?token=x", links[0].URL)
	require.Equal(t, "couch_v2.zip", links[0].Filename)
	require.Equal(t, "173 MB", links[0].SizeText)
}

func TestResolveLinksPartialFailure(t *testing.T) {
	rows := DownloadRows(parseDoc(t, downloadTableFragment))

	calls := 0
	fetch := func(ctx context.Context, href string) (*goquery.Document, error) {
		calls++
		if calls > 1 {
			return nil, fmt.Errorf("origin hung up")
		}
		return parseDoc(t, downloadPage("https://cdn.example.com/couch.zip")), nil
	}

	links, err := ResolveLinks(context.Background(), fetch, rows)

	require.Error(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "https://cdn.example.com/couch.zip", links[0].URL)
}

func TestResolveLinksFilenameFromURL(t *testing.T) {
	fetch := func(ctx context.Context, href string) (*goquery.Document, error) {
		return parseDoc(t, downloadPage("https://cdn.example.com/files/couch_v2.zip?token=abc")), nil
	}

	links, err := ResolveLinks(context.Background(), fetch, []DownloadRow{{Href: "/file/7/"}})
	require.NoError(t, err)

	require.Len(t, links, 1)
	require.Equal(t, "couch_v2.zip", links[0].Filename)
}

const detailFragment = `
	<div class="container"><h1 id="file_title">  Stylized Couch  </h1></div>
	<div class="content-container">
		<div class="main-upload">
			<div class="panel"><div class="panel__body">
				<p>Low poly couch.</p>
				<p>	 </p>
			</div></div>
			<div class="text-center">
				<a><picture class="project-detail-image-main"><img src="https://cdn.example.com/couch_1.jpg"></picture></a>
			</div>
			<table><tbody>
				<tr><td><a href="/file/101/">zip</a></td><td>173 MB</td></tr>
			</tbody></table>
		</div>
		<div class="side-upload">
			<div class="panel">
				<div class="panel__body"><img src="https://cdn.example.com/thumb.jpg"></div>
				<div class="panel__footer">
					<dl><dd>a</dd></dl><dl><dd>b</dd></dl><dl><dd>c</dd></dl><dl><dd>d</dd></dl>
					<dl><dt>Category</dt><dd>Furniture</dd></dl>
				</div>
			</div>
		</div>
	</div>
`

func TestDetailPage(t *testing.T) {
	detail := DetailPage(parseDoc(t, detailFragment))

	require.Equal(t, "Stylized Couch", detail.Name)
	require.Equal(t, "Furniture", detail.Category)
	require.Equal(t, "173 MB", detail.SizeText)
	require.Equal(t, []string{"https://cdn.example.com/couch_1.jpg"}, detail.Images)
	require.Equal(t, "https://cdn.example.com/couch_1.jpg", detail.ImageURL)
	require.Contains(t, detail.Description, "Low poly couch.")
	require.NotContains(t, detail.Description, "<p>\t")
}

func TestDetailPageThumbnailFallback(t *testing.T) {
	doc := parseDoc(t, `
		<div class="content-container">
			<div class="main-upload"></div>
			<div class="side-upload">
				<div class="panel"><div class="panel__body">
					<img src="https://cdn.example.com/thumb.jpg">
				</div></div>
			</div>
		</div>
	`)

	detail := DetailPage(doc)
	require.Equal(t, []string{"https://cdn.example.com/thumb.jpg"}, detail.Images)
	require.Equal(t, "https://cdn.example.com/thumb.jpg", detail.ImageURL)
}
