package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/sheet"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/openai"
)

// Prompts holds the per-role system prompts for generative search.
type Prompts struct {
	GIS      string
	Mayor    string
	Assessor string
}

// For returns the system prompt for a role.
func (p Prompts) For(r Role) string {
	switch r {
	case RoleGIS:
		return p.GIS
	case RoleMayor:
		return p.Mayor
	case RoleAssessor:
		return p.Assessor
	default:
		return ""
	}
}

// Columns bundles a section's resolved input columns with the indices of the
// output columns the run controller ensured before enrichment started.
type Columns struct {
	Map sheet.ColumnMap

	ContactTag         int
	Source             int
	EmailConfidence    int
	AltEmail           int
	AltEmailConfidence int
	HunterSource       int
}

// RowStatus reports whether a row made it past the skip checks.
type RowStatus int

const (
	RowSkipped RowStatus = iota
	RowProcessed
)

// Engine enriches one row at a time: generative search for the contact,
// conditional verification of the returned email, and alternate email
// discovery with score arbitration.
type Engine struct {
	search  openai.Client
	emails  hunter.Client
	prompts Prompts
}

// NewEngine creates an enrichment engine.
func NewEngine(search openai.Client, emails hunter.Client, prompts Prompts) *Engine {
	return &Engine{search: search, emails: emails, prompts: prompts}
}

// contactRecord is the structured record parsed from a search reply.
type contactRecord struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phoneNumber"`
	Role          string `json:"role"`
	SourceWebsite string `json:"sourceWebsite"`
	EmailType     string `json:"emailType"`
	GovWebsite    string `json:"govWebsite"`
}

// field returns a record value with the "nothing found" sentinel blanked.
func field(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), "None") {
		return ""
	}
	return strings.TrimSpace(v)
}

// EnrichRow runs the full pipeline on one row of a section, mutating the
// section's cells in place.
//
// A returned *RowError means the row failed but the section can continue; a
// *SectionError means the section should be flushed as incomplete. An
// openai.ErrConnectivity is fatal for the whole run and is returned as-is.
func (e *Engine) EnrichRow(ctx context.Context, sec *sheet.Section, cols Columns, role Role, row int) (RowStatus, error) {
	log := zap.L().With(
		zap.String("section", sec.Name),
		zap.String("role", role.String()),
		zap.Int("row", row),
	)

	if countNonBlank(sec.Rows[row]) <= 1 {
		return RowSkipped, nil
	}

	countyCol := cols.Map.Col(sheet.FieldCountyCity)
	county := strings.TrimSpace(sec.Cell(row, countyCol))
	if county == "" || strings.EqualFold(county, headerLabel(sec, countyCol)) {
		return RowSkipped, nil
	}

	stateCol := cols.Map.Col(sheet.FieldState)
	state := strings.TrimSpace(sec.Cell(row, stateCol))

	// The query carries the state cell as-is; the cell itself is only
	// rewritten once a contact is actually found.
	query := strings.Join(strings.Fields(county+" "+state+" Government"), " ")
	reply, err := e.search.Search(ctx, e.prompts.For(role), query)
	if err != nil {
		if errors.Is(err, openai.ErrConnectivity) {
			return RowProcessed, err
		}
		log.Warn("search failed, skipping row", zap.Error(err))
		return RowProcessed, nil
	}

	reply = stripFences(strings.TrimSpace(reply))
	if reply == "" || strings.EqualFold(reply, "None") {
		log.Debug("no contact found", zap.String("query", query))
		return RowProcessed, nil
	}

	var rec contactRecord
	if err := json.Unmarshal([]byte(reply), &rec); err != nil {
		log.Warn("unparseable search reply, skipping row", zap.Error(err), zap.String("reply", reply))
		return RowProcessed, nil
	}

	if stateCol >= 0 {
		sec.SetCell(row, stateCol, sheet.NormalizeState(state))
	}

	if err := e.writeContact(sec, cols, role, row, &rec); err != nil {
		return RowProcessed, err
	}

	email := field(rec.Email)
	masked := email != "" &&
		(strings.Contains(email, "*") || strings.Contains(strings.ToLower(email), "protected"))
	verifyNeeded := email != "" && rec.EmailType == "person" && !masked

	// Masked or privacy-shielded addresses are useless as-is and always go
	// through re-discovery.
	reFind := masked

	if verifyNeeded {
		reFind = e.verify(ctx, log, sec, cols, row, email)
	}

	if !verifyNeeded || reFind {
		if err := e.discover(ctx, log, sec, cols, row, &rec, reFind); err != nil {
			return RowProcessed, err
		}
	}

	return RowProcessed, nil
}

// writeContact writes the searched record into the row's mapped columns.
// Writing to an unmapped column is a row-level failure.
func (e *Engine) writeContact(sec *sheet.Section, cols Columns, role Role, row int, rec *contactRecord) error {
	writes := []struct {
		f   sheet.Field
		val string
	}{
		{sheet.FieldFirstName, field(rec.FirstName)},
		{sheet.FieldLastName, field(rec.LastName)},
		{sheet.FieldEmail, field(rec.Email)},
		{sheet.FieldPhone, field(rec.PhoneNumber)},
		{sheet.FieldRoleTitle, field(rec.Role)},
	}
	for _, w := range writes {
		col := cols.Map.Col(w.f)
		if col < 0 {
			return &RowError{Row: row, Value: string(w.f), Err: errors.New("enrich: column not mapped")}
		}
		sec.SetCell(row, col, w.val)
	}

	sec.SetCell(row, cols.Source, field(rec.SourceWebsite))

	if tag := role.ContactTag(); tag != "" {
		if cols.Map.Has(sheet.FieldTag) {
			sec.SetCell(row, cols.Map.Col(sheet.FieldTag), tag)
		}
		sec.SetCell(row, cols.ContactTag, tag)
	}

	return nil
}

// verify checks the searched email's deliverability and reports whether the
// row should go through email re-discovery.
func (e *Engine) verify(ctx context.Context, log *zap.Logger, sec *sheet.Section, cols Columns, row int, email string) bool {
	resp, err := e.emails.VerifyEmail(ctx, email)
	if err != nil {
		log.Warn("email verification failed", zap.String("email", email), zap.Error(err))
		return false
	}

	switch {
	case resp.Data != nil:
		sec.SetCell(row, cols.EmailConfidence, strconv.Itoa(resp.Data.Score))
		if uri := firstSourceURI(resp.Data.Sources); uri != "" {
			sec.SetCell(row, cols.HunterSource, uri)
		}
		if resp.Data.Score < 80 {
			log.Info("low verification score, re-discovering",
				zap.String("email", email), zap.Int("score", resp.Data.Score))
			return true
		}
	case resp.InvalidEmail():
		log.Info("invalid email, re-discovering", zap.String("email", email))
		return true
	case resp.Pending:
		log.Warn("verification still pending after polling", zap.String("email", email))
	default:
		log.Warn("unexpected verifier response",
			zap.String("email", email), zap.Int("status", resp.StatusCode))
	}
	return false
}

// Name tokens that mark a departmental placeholder rather than a person;
// the finder cannot do anything useful with them.
var (
	placeholderFirst = map[string]bool{"none": true, "gis": true, "tax": true, "appraiser": true}
	placeholderLast  = map[string]bool{"none": true, "gis": true, "tax": true, "team": true, "appraiser": true}
)

// discover asks the email finder for an address and arbitrates the candidate
// against whatever the row already holds.
func (e *Engine) discover(ctx context.Context, log *zap.Logger, sec *sheet.Section, cols Columns, row int, rec *contactRecord, reFind bool) error {
	first := field(rec.FirstName)
	last := field(rec.LastName)
	domain := field(rec.GovWebsite)

	if first == "" || last == "" || domain == "" ||
		placeholderFirst[strings.ToLower(first)] || placeholderLast[strings.ToLower(last)] {
		return nil
	}

	resp, err := e.emails.FindEmail(ctx, first, last, domain)
	if err != nil {
		log.Warn("email discovery failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}

	switch {
	case resp.Data != nil && resp.Data.Email != "":
		return e.applyCandidate(log, sec, cols, row, resp.Data, reFind)
	case resp.Pending:
		log.Warn("discovery still pending after polling", zap.String("domain", domain))
	case len(resp.Errors) > 0:
		log.Warn("discovery rejected",
			zap.String("domain", domain), zap.String("reason", resp.Errors[0].ID))
	}
	return nil
}

func (e *Engine) applyCandidate(log *zap.Logger, sec *sheet.Section, cols Columns, row int, data *hunter.FindData, reFind bool) error {
	emailCol := cols.Map.Col(sheet.FieldEmail)
	primary := strings.TrimSpace(sec.Cell(row, emailCol))
	confidence := strings.TrimSpace(sec.Cell(row, cols.EmailConfidence))

	disp, err := Arbitrate(primary, confidence, reFind, data.Score)
	if err != nil {
		return &SectionError{Row: row, Err: err}
	}

	score := strconv.Itoa(data.Score)
	switch disp {
	case Promote:
		sec.SetCell(row, cols.AltEmail, primary)
		sec.SetCell(row, cols.AltEmailConfidence, confidence)
		sec.SetCell(row, emailCol, data.Email)
		sec.SetCell(row, cols.EmailConfidence, score)
		if uri := firstSourceURI(data.Sources); uri != "" {
			sec.SetCell(row, cols.HunterSource, uri)
		}
	case StoreAlternative:
		sec.SetCell(row, cols.AltEmail, data.Email)
		sec.SetCell(row, cols.AltEmailConfidence, score)
		if uri := firstSourceURI(data.Sources); uri != "" {
			sec.SetCell(row, cols.HunterSource, uri)
		}
	case Discard:
		log.Debug("candidate discarded", zap.String("email", data.Email), zap.Int("score", data.Score))
		return nil
	}

	if cols.Map.Has(sheet.FieldLinkedIn) && data.LinkedInURL != "" {
		sec.SetCell(row, cols.Map.Col(sheet.FieldLinkedIn), data.LinkedInURL)
	}

	if cols.Map.Has(sheet.FieldPhone) && data.PhoneNumber != "" && data.PhoneNumber != "0" {
		phoneCol := cols.Map.Col(sheet.FieldPhone)
		if cur := strings.TrimSpace(sec.Cell(row, phoneCol)); cur == "" || cur == "0" {
			sec.SetCell(row, phoneCol, data.PhoneNumber)
		}
	}

	return nil
}

func countNonBlank(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

func headerLabel(sec *sheet.Section, col int) string {
	if col < 0 || col >= len(sec.Header) {
		return ""
	}
	return strings.TrimSpace(sec.Header[col])
}

// stripFences removes a markdown code fence around a reply, with or without a
// language tag. Search models add fences despite the prompt's instruction.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func firstSourceURI(sources []hunter.Source) string {
	if len(sources) == 0 {
		return ""
	}
	return sources[0].URI
}
