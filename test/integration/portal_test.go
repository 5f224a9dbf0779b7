package integration

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	landingPath = "/Akademik/EPBM/Detail"
	sessionName = "epbm_session"
)

// pageSpec is one sub-page of a questionnaire as the portal script renders it.
type pageSpec struct {
	Heading    string `json:"heading"`
	Ratings    int    `json:"ratings"`
	TextAreas  int    `json:"textareas"`
	Checkboxes int    `json:"checkboxes"`
	Last       bool   `json:"last"`
}

type pageAnswer struct {
	Stars   []int    `json:"stars"`
	Texts   []string `json:"texts"`
	Checked []bool   `json:"checked"`
}

type questionnaire struct {
	ID          string
	Title       string
	Description string
	Pages       []pageSpec
}

func standardPages() []pageSpec {
	return []pageSpec{
		{Heading: "1. Pertanyaan terkait mata kuliah", Ratings: 5},
		{Heading: "2. Dosen memberikan kuliah dengan metode ceramah", Ratings: 2},
		{Heading: "3. Dosen menyampaikan kuliah dengan menjadi mentor", Ratings: 2},
		{Heading: "4. Dosen memberikan contoh/ilustrasi dalam kehidupan nyata", Ratings: 2},
		{Heading: "5. Dosen menfaatkan ketersediaan teknologi", Ratings: 2},
		{Heading: "6. Dosen memberikan umpan balik", Ratings: 2},
		{Heading: "7. Berikan saran untuk masing-masing dosen pengajar", TextAreas: 2, Checkboxes: 1, Last: true},
	}
}

func facilitiesPages() []pageSpec {
	return []pageSpec{{Heading: "Sarana dan Prasarana", Ratings: 3, Checkboxes: 1, Last: true}}
}

// portal is a small stand-in for the student portal: cookie login, a landing
// page of cards and script-rendered multi-page questionnaires.
type portal struct {
	t        *testing.T
	username string
	password string
	items    []questionnaire

	mu    sync.Mutex
	saved map[string][]pageAnswer
	order []string
}

func newPortal(t *testing.T, items ...questionnaire) (*portal, *httptest.Server) {
	t.Helper()
	p := &portal{
		t:        t,
		username: "G6401211001",
		password: "rahasia",
		items:    items,
		saved:    map[string][]pageAnswer{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", p.login)
	mux.HandleFunc(landingPath, p.signedIn(p.landing))
	mux.HandleFunc("/epbm/", p.signedIn(p.form))
	mux.HandleFunc("/save/", p.signedIn(p.save))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return p, server
}

func (p *portal) submissions() (map[string][]pageAnswer, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]pageAnswer, len(p.saved))
	for k, v := range p.saved {
		out[k] = v
	}
	return out, append([]string(nil), p.order...)
}

func (p *portal) signedIn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionName)
		if err != nil || c.Value != p.username {
			http.Redirect(w, r, "/login?ReturnUrl="+r.URL.Path, http.StatusFound)
			return
		}
		next(w, r)
	}
}

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html><head><title>Login</title></head>
<body>
{{if .}}<div class="alert alert-danger">{{.}}</div>{{end}}
<form method="post" action="/login">
	<input id="Username" name="Username" type="text" />
	<input id="Password" name="Password" type="password" />
	<button type="submit">Masuk</button>
</form>
</body></html>`))

func (p *portal) login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if r.Method != http.MethodPost {
		_ = loginTmpl.Execute(w, "")
		return
	}
	if r.FormValue("Username") != p.username || r.FormValue("Password") != p.password {
		_ = loginTmpl.Execute(w, "Login gagal, username atau password Anda salah.")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionName, Value: p.username, Path: "/"})
	http.Redirect(w, r, landingPath, http.StatusSeeOther)
}

var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html><head><title>EPBM</title></head>
<body>
<main>
{{range .}}
	<a class="btn card small-box" href="/epbm/{{.ID}}">
		<div class="card-header"><h4>{{.Title}}</h4>{{if .Description}}<p>{{.Description}}</p>{{end}}</div>
		{{if .Done}}<i class="fa fa-check-circle text-success"></i>{{end}}
	</a>
{{end}}
</main>
</body></html>`))

func (p *portal) landing(w http.ResponseWriter, r *http.Request) {
	type card struct {
		questionnaire
		Done bool
	}
	p.mu.Lock()
	cards := make([]card, 0, len(p.items))
	for _, it := range p.items {
		_, done := p.saved[it.ID]
		cards = append(cards, card{questionnaire: it, Done: done})
	}
	p.mu.Unlock()

	w.Header().Set("Content-Type", "text/html")
	_ = landingTmpl.Execute(w, cards)
}

func (p *portal) find(id string) (questionnaire, bool) {
	for _, it := range p.items {
		if it.ID == id {
			return it, true
		}
	}
	return questionnaire{}, false
}

// formScript renders one page at a time into #page. Next swaps the content in
// place; save posts every page's answers and then opens the modal.
const formScript = `
const pages = JSON.parse(document.getElementById('pages').textContent);
const answers = pages.map(p => ({stars: Array(p.ratings).fill(0), texts: [], checked: []}));
let current = 0;

function collect() {
	const a = answers[current];
	a.texts = Array.from(document.querySelectorAll('#page textarea')).map(t => t.value);
	a.checked = Array.from(document.querySelectorAll('#page input[type=checkbox]')).map(c => c.checked);
}

function render() {
	const p = pages[current];
	let html = '<h5>' + p.heading + '</h5>';
	for (let i = 0; i < p.ratings; i++) {
		html += '<div class="b-rating" data-q="' + i + '">';
		for (let v = 1; v <= 4; v++) {
			html += '<span class="b-rating-star" data-v="' + v + '">&#9733;</span>';
		}
		html += '</div>';
	}
	for (let i = 0; i < p.textareas; i++) html += '<textarea></textarea>';
	for (let i = 0; i < p.checkboxes; i++) html += '<label><input type="checkbox" /> Saya setuju</label>';
	html += p.last ? '<button id="save" type="button">Simpan EPBM</button>'
	               : '<button id="next" type="button">Selanjutnya</button>';
	document.getElementById('page').innerHTML = html;

	document.querySelectorAll('#page .b-rating').forEach(r => {
		r.querySelectorAll('.b-rating-star').forEach(s => {
			s.addEventListener('click', () => { answers[current].stars[+r.dataset.q] = +s.dataset.v; });
		});
	});
	const next = document.getElementById('next');
	if (next) next.addEventListener('click', () => { collect(); current++; render(); });
	const save = document.getElementById('save');
	if (save) save.addEventListener('click', () => {
		collect();
		fetch('/save/' + document.body.dataset.id, {method: 'POST', body: JSON.stringify(answers)})
			.then(() => {
				document.getElementById('modal').innerHTML =
					'<div class="modal"><div class="modal-dialog"><div class="modal-body">Data berhasil disimpan</div>' +
					'<div class="modal-footer"><button type="button" class="btn">OK</button></div></div></div>';
			});
	});
}

render();
`

var formTmpl = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body data-id="{{.ID}}">
<div id="page"></div>
<div id="modal"></div>
<script id="pages" type="application/json">{{.PagesJSON}}</script>
<script>{{.Script}}</script>
</body></html>`))

func (p *portal) form(w http.ResponseWriter, r *http.Request) {
	it, ok := p.find(strings.TrimPrefix(r.URL.Path, "/epbm/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := json.Marshal(it.Pages)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	_ = formTmpl.Execute(w, map[string]any{
		"ID":        it.ID,
		"Title":     it.Title,
		"PagesJSON": template.JS(data),
		"Script":    template.JS(formScript),
	})
}

func (p *portal) save(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/save/")
	if _, ok := p.find(id); !ok || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var answers []pageAnswer
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		http.Error(w, fmt.Sprintf("decode answers: %v", err), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.saved[id] = answers
	p.order = append(p.order, id)
	p.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
