package view

import (
	"context"
	"net/http"
	"strings"

	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/display"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/export"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// Filter narrows the list. Zero Limit means the configured page size.
type Filter struct {
	Name        string `json:"name,omitempty"`
	JobFunction string `json:"jobFunction,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
}

// Row is one employee as the list shows it
type Row struct {
	ID          domain.ID     `json:"id"`
	FullName    string        `json:"fullName"`
	BadgeName   string        `json:"badgeName"`
	Position    string        `json:"position"`
	CPF         string        `json:"cpf"`
	Mobile      string        `json:"mobile"`
	Status      domain.Status `json:"status"`
	StatusLabel string        `json:"statusLabel"`
	Photo       string        `json:"photo"`
	DetailPath  string        `json:"detailPath"`
	EditPath    string        `json:"editPath"`
}

// Page is one loaded page of the list
type Page struct {
	Rows      []Row             `json:"rows"`
	Employees []domain.Employee `json:"-"`
	Filter    Filter            `json:"filter"`
	Total     int               `json:"total"`
	Number    int               `json:"page"`
	Pages     int               `json:"pages"`
	HasPrev   bool              `json:"hasPrev"`
	HasNext   bool              `json:"hasNext"`
}

// ListView is the employee list screen
type ListView struct {
	state
	backend    Backend
	pagination config.PaginationConfig

	filter Filter
	page   *Page
}

func NewListView(backend Backend, pagination config.PaginationConfig, l *i18n.Localizer, log *logger.Logger) *ListView {
	if pagination.DefaultPageSize <= 0 {
		pagination.DefaultPageSize = 20
	}
	if pagination.MaxPageSize < pagination.DefaultPageSize {
		pagination.MaxPageSize = pagination.DefaultPageSize
	}
	v := &ListView{
		backend:    backend,
		pagination: pagination,
		filter:     Filter{Limit: pagination.DefaultPageSize},
	}
	v.init(l, log)
	return v
}

func (v *ListView) normalize(f Filter) Filter {
	f.Name = strings.TrimSpace(f.Name)
	f.JobFunction = strings.TrimSpace(f.JobFunction)
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	if f.Limit <= 0 {
		f.Limit = v.pagination.DefaultPageSize
	}
	if f.Limit > v.pagination.MaxPageSize {
		f.Limit = v.pagination.MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Load fetches the page described by f
func (v *ListView) Load(ctx context.Context, f Filter) (*Page, error) {
	f = v.normalize(f)
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	res, err := v.backend.Search(ctx, client.SearchFilter{
		Name:        f.Name,
		JobFunction: f.JobFunction,
		Status:      f.Status,
		Limit:       f.Limit,
		Offset:      f.Offset,
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.settleLocked(ctx, err); err != nil {
		return nil, err
	}

	v.filter = f
	v.page = v.newPage(res, f)
	return v.page, nil
}

// GoTo loads page n (1-based) with the current filter
func (v *ListView) GoTo(ctx context.Context, n int) (*Page, error) {
	if n < 1 {
		n = 1
	}
	f := v.Filter()
	f.Offset = (n - 1) * f.Limit
	return v.Load(ctx, f)
}

func (v *ListView) Next(ctx context.Context) (*Page, error) {
	return v.GoTo(ctx, v.currentNumber()+1)
}

func (v *ListView) Prev(ctx context.Context) (*Page, error) {
	return v.GoTo(ctx, v.currentNumber()-1)
}

func (v *ListView) currentNumber() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return 1
	}
	return v.page.Number
}

func (v *ListView) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// SetFilter replaces the filter without loading, e.g. before an xlsx export
func (v *ListView) SetFilter(f Filter) {
	f = v.normalize(f)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

// Page returns the last loaded page, nil before the first load
func (v *ListView) Page() *Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *ListView) newPage(res *client.SearchResult, f Filter) *Page {
	p := &Page{
		Employees: res.Employees,
		Rows:      make([]Row, 0, len(res.Employees)),
		Filter:    f,
		Total:     res.Total,
	}
	if p.Total < len(res.Employees) {
		p.Total = f.Offset + len(res.Employees)
	}
	for i := range res.Employees {
		p.Rows = append(p.Rows, v.row(&res.Employees[i]))
	}
	p.Number = f.Offset/f.Limit + 1
	p.Pages = (p.Total + f.Limit - 1) / f.Limit
	if p.Pages == 0 {
		p.Pages = 1
	}
	p.HasPrev = f.Offset > 0
	p.HasNext = f.Offset+len(res.Employees) < p.Total
	return p
}

func (v *ListView) row(e *domain.Employee) Row {
	return Row{
		ID:          e.ID,
		FullName:    e.FullName,
		BadgeName:   e.BadgeName(),
		Position:    display.Text(e.Position(), v.l),
		CPF:         display.CPF(e.CPF, v.l),
		Mobile:      display.Phone(e.Mobile, v.l),
		Status:      e.Status,
		StatusLabel: display.Status(e.Status, v.l),
		Photo:       display.Photo(e),
		DetailPath:  DetailPath(e.ID),
		EditPath:    EditPath(e.ID),
	}
}

// Delete removes an employee once the user confirmed it
func (v *ListView) Delete(ctx context.Context, id domain.ID, confirmed bool) (*client.DeleteResult, error) {
	if !confirmed {
		e := errors.NewWithKey(errors.CodeBadRequest, "view.confirm_delete", http.StatusBadRequest)
		e.Err = ErrConfirmationRequired
		return nil, e
	}
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	res, err := v.backend.Delete(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.settleLocked(ctx, err); err != nil {
		return nil, err
	}
	if res.Message == "" {
		res.Message = v.l.T("view.deleted")
	}
	v.dropLocked(id)
	v.log.Info().Int("employee_id", int(id)).Msg("employee deleted from list")
	return res, nil
}

func (v *ListView) dropLocked(id domain.ID) {
	if v.page == nil {
		return
	}
	for i, r := range v.page.Rows {
		if r.ID == id {
			v.page.Rows = append(v.page.Rows[:i:i], v.page.Rows[i+1:]...)
			v.page.Employees = append(v.page.Employees[:i:i], v.page.Employees[i+1:]...)
			v.page.Total--
			return
		}
	}
}

// DownloadBadge fetches the badge PDF as cracha_<name>.pdf
func (v *ListView) DownloadBadge(ctx context.Context, id domain.ID) (*File, error) {
	return v.downloadNamed(ctx, id, "cracha", v.backend.GenerateBadge)
}

// DownloadDocument fetches the accountant document as documento_contabil_<name>.pdf
func (v *ListView) DownloadDocument(ctx context.Context, id domain.ID) (*File, error) {
	return v.downloadNamed(ctx, id, "documento_contabil", v.backend.GenerateDocument)
}

func (v *ListView) downloadNamed(ctx context.Context, id domain.ID, prefix string, fetch func(context.Context, domain.ID) (*client.Download, error)) (*File, error) {
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	d, err := fetch(ctx, id)
	if err == nil {
		name := v.nameOf(ctx, id)
		v.mu.Lock()
		defer v.mu.Unlock()
		if err := v.settleLocked(ctx, nil); err != nil {
			return nil, err
		}
		return fileFrom(d, display.FileName(prefix, name, "pdf"), contentTypePDF), nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return nil, v.settleLocked(ctx, err)
}

// nameOf finds the full name on the loaded page, asking the backend otherwise
func (v *ListView) nameOf(ctx context.Context, id domain.ID) string {
	v.mu.Lock()
	if v.page != nil {
		for _, r := range v.page.Rows {
			if r.ID == id {
				v.mu.Unlock()
				return r.FullName
			}
		}
	}
	v.mu.Unlock()

	e, err := v.backend.GetByID(ctx, id)
	if err != nil {
		v.log.Debug().Err(err).Int("employee_id", int(id)).Msg("employee name unavailable for download")
		return ""
	}
	return e.FullName
}

// DownloadBadges fetches one PDF with the badges of ids
func (v *ListView) DownloadBadges(ctx context.Context, ids []domain.ID) (*File, error) {
	if len(ids) == 0 {
		return nil, errors.Validation(map[string]string{"employeeIds": v.l.T("validation.required")})
	}
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	d, err := v.backend.GenerateBadges(ctx, ids)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.settleLocked(ctx, err); err != nil {
		return nil, err
	}
	return fileFrom(d, "crachas.pdf", contentTypePDF), nil
}

// Export downloads funcionarios.<format>. csv and json come from the backend,
// xlsx is built here from the current filter.
func (v *ListView) Export(ctx context.Context, format, status string) (*File, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	status = strings.ToUpper(strings.TrimSpace(status))

	switch format {
	case client.FormatCSV, client.FormatJSON:
	case export.FormatXLSX:
		return v.exportXLSX(ctx, status)
	default:
		return nil, errors.BadRequestWithKey("export.invalid_format")
	}

	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	d, err := v.backend.Export(ctx, format, status)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.settleLocked(ctx, err); err != nil {
		return nil, err
	}
	fallback := "text/csv"
	if format == client.FormatJSON {
		fallback = "application/json"
	}
	return fileFrom(d, "funcionarios."+format, fallback), nil
}

func (v *ListView) exportXLSX(ctx context.Context, status string) (*File, error) {
	f := v.Filter()
	if status != "" {
		f.Status = status
	}
	page, err := v.Load(ctx, f)
	if err != nil {
		return nil, err
	}

	data, err := export.Workbook(page.Employees, v.l)
	if err != nil {
		return nil, errors.Internal(err.Error())
	}
	return &File{Name: "funcionarios." + export.FormatXLSX, ContentType: export.ContentTypeXLSX, Data: data}, nil
}
