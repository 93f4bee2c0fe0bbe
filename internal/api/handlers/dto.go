// dto.go — структуры запросов/ответов HTTP API и их отображение в доменные модели.
// Имена JSON-полей совпадают с колонками таблиц (snake_case).
package handlers

import (
	"time"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
)

// equipmentLines — плоские поля equipment1_name … equipment6_serial.
type equipmentLines struct {
	Equipment1Name   *string `json:"equipment1_name"`
	Equipment1Serial *string `json:"equipment1_serial"`
	Equipment2Name   *string `json:"equipment2_name"`
	Equipment2Serial *string `json:"equipment2_serial"`
	Equipment3Name   *string `json:"equipment3_name"`
	Equipment3Serial *string `json:"equipment3_serial"`
	Equipment4Name   *string `json:"equipment4_name"`
	Equipment4Serial *string `json:"equipment4_serial"`
	Equipment5Name   *string `json:"equipment5_name"`
	Equipment5Serial *string `json:"equipment5_serial"`
	Equipment6Name   *string `json:"equipment6_name"`
	Equipment6Serial *string `json:"equipment6_serial"`
}

func (e *equipmentLines) slots() [model.EquipmentSlots][2]**string {
	return [model.EquipmentSlots][2]**string{
		{&e.Equipment1Name, &e.Equipment1Serial},
		{&e.Equipment2Name, &e.Equipment2Serial},
		{&e.Equipment3Name, &e.Equipment3Serial},
		{&e.Equipment4Name, &e.Equipment4Serial},
		{&e.Equipment5Name, &e.Equipment5Serial},
		{&e.Equipment6Name, &e.Equipment6Serial},
	}
}

func (e *equipmentLines) toModel() [model.EquipmentSlots]model.EquipmentLine {
	var out [model.EquipmentSlots]model.EquipmentLine
	for i, s := range e.slots() {
		out[i] = model.EquipmentLine{Name: *s[0], Serial: *s[1]}
	}
	return out
}

func mapEquipmentLines(lines [model.EquipmentSlots]model.EquipmentLine) equipmentLines {
	var e equipmentLines
	for i, s := range e.slots() {
		*s[0] = lines[i].Name
		*s[1] = lines[i].Serial
	}
	return e
}

// --- Записи обслуживания ---

type serviceRecordResponse struct {
	ID                string  `json:"id"`
	CompanyID         string  `json:"company_id"`
	CertificateNumber *string `json:"certificate_number"`
	ServiceDate       string  `json:"service_date"`
	RetestDate        string  `json:"retest_date"`
	EngineerName      *string `json:"engineer_name"`
	equipmentLines
	Status    *string   `json:"status"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapServiceRecord(r *model.ServiceRecord) serviceRecordResponse {
	return serviceRecordResponse{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		CertificateNumber: r.CertificateNumber,
		ServiceDate:       r.ServiceDate.Format(retest.DateLayout),
		RetestDate:        r.RetestDate.Format(retest.DateLayout),
		EngineerName:      r.EngineerName,
		equipmentLines:    mapEquipmentLines(r.Equipment),
		Status:            r.Status,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type serviceRecordCreateRequest struct {
	CompanyID         string  `json:"company_id"`
	CertificateNumber *string `json:"certificate_number"`
	ServiceDate       string  `json:"service_date"`
	EngineerName      *string `json:"engineer_name"`
	equipmentLines
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// serviceRecordUpdateRequest — закрытый перечень изменяемых полей.
// id, company_id, retest_date, created_at, updated_at и неизвестные ключи
// в структуру не попадают. JSON null даёт nil, то есть «не менять».
type serviceRecordUpdateRequest struct {
	CertificateNumber *string `json:"certificate_number"`
	ServiceDate       *string `json:"service_date"`
	EngineerName      *string `json:"engineer_name"`
	equipmentLines
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (req *serviceRecordUpdateRequest) toPatch() (*model.ServiceRecordPatch, error) {
	p := &model.ServiceRecordPatch{
		CertificateNumber: req.CertificateNumber,
		EngineerName:      req.EngineerName,
		Equipment:         req.equipmentLines.toModel(),
		Status:            req.Status,
		Notes:             req.Notes,
	}
	if req.ServiceDate != nil {
		d, err := retest.ParseDate(*req.ServiceDate)
		if err != nil {
			return nil, err
		}
		p.ServiceDate = &d
	}
	return p, nil
}

type certificateResponse struct {
	Record          serviceRecordResponse `json:"record"`
	Company         companyResponse       `json:"company"`
	Status          string                `json:"status"`
	DaysUntilRetest int                   `json:"days_until_retest"`
}

func mapCertificate(c *model.Certificate) certificateResponse {
	return certificateResponse{
		Record:          mapServiceRecord(c.Record),
		Company:         mapCompany(c.Company),
		Status:          c.Status,
		DaysUntilRetest: c.DaysUntilRetest,
	}
}

// --- Компании и контакты ---

type companyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"company_name"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	County    *string   `json:"county"`
	Postcode  *string   `json:"postcode"`
	Country   *string   `json:"country"`
	Telephone *string   `json:"telephone"`
	Email     *string   `json:"email"`
	Website   *string   `json:"website"`
	Industry  *string   `json:"industry"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapCompany(c *model.Company) companyResponse {
	return companyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		City:      c.City,
		County:    c.County,
		Postcode:  c.Postcode,
		Country:   c.Country,
		Telephone: c.Telephone,
		Email:     c.Email,
		Website:   c.Website,
		Industry:  c.Industry,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type companyRequest struct {
	Name      string  `json:"company_name"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	County    *string `json:"county"`
	Postcode  *string `json:"postcode"`
	Country   *string `json:"country"`
	Telephone *string `json:"telephone"`
	Email     *string `json:"email"`
	Website   *string `json:"website"`
	Industry  *string `json:"industry"`
	Notes     *string `json:"notes"`
}

func (req *companyRequest) toModel(id string) *model.Company {
	return &model.Company{
		ID:        id,
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		County:    req.County,
		Postcode:  req.Postcode,
		Country:   req.Country,
		Telephone: req.Telephone,
		Email:     req.Email,
		Website:   req.Website,
		Industry:  req.Industry,
		Notes:     req.Notes,
	}
}

type companySummaryResponse struct {
	CompanyID          string  `json:"company_id"`
	EquipmentCount     int     `json:"equipment_count"`
	ServiceRecordCount int     `json:"service_record_count"`
	DueSoonCount       int     `json:"due_soon_count"`
	OverdueCount       int     `json:"overdue_count"`
	LatestServiceDate  *string `json:"latest_service_date"`
}

func mapCompanySummary(s *model.CompanySummary) companySummaryResponse {
	resp := companySummaryResponse{
		CompanyID:          s.CompanyID,
		EquipmentCount:     s.EquipmentCount,
		ServiceRecordCount: s.ServiceRecordCount,
		DueSoonCount:       s.DueSoonCount,
		OverdueCount:       s.OverdueCount,
	}
	if s.LatestServiceDate != nil {
		d := s.LatestServiceDate.Format(retest.DateLayout)
		resp.LatestServiceDate = &d
	}
	return resp
}

type contactResponse struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	FirstName       string    `json:"first_name"`
	LastName        *string   `json:"last_name"`
	Email           *string   `json:"email"`
	Telephone       *string   `json:"telephone"`
	Mobile          *string   `json:"mobile"`
	JobTitle        *string   `json:"job_title"`
	IsPrimary       bool      `json:"is_primary"`
	HasSystemAccess bool      `json:"has_system_access"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func mapContact(c *model.Contact) contactResponse {
	return contactResponse{
		ID:              c.ID,
		CompanyID:       c.CompanyID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Telephone:       c.Telephone,
		Mobile:          c.Mobile,
		JobTitle:        c.JobTitle,
		IsPrimary:       c.IsPrimary,
		HasSystemAccess: c.HasSystemAccess,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

type contactRequest struct {
	FirstName       string  `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Telephone       *string `json:"telephone"`
	Mobile          *string `json:"mobile"`
	JobTitle        *string `json:"job_title"`
	IsPrimary       bool    `json:"is_primary"`
	HasSystemAccess bool    `json:"has_system_access"`
}

func (req *contactRequest) toModel(id, companyID string) *model.Contact {
	return &model.Contact{
		ID:              id,
		CompanyID:       companyID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Telephone:       req.Telephone,
		Mobile:          req.Mobile,
		JobTitle:        req.JobTitle,
		IsPrimary:       req.IsPrimary,
		HasSystemAccess: req.HasSystemAccess,
	}
}

// --- Оборудование ---

type equipmentResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Name          string    `json:"name"`
	EquipmentType string    `json:"equipment_type"`
	Manufacturer  *string   `json:"manufacturer"`
	Model         *string   `json:"model"`
	SerialNumber  *string   `json:"serial_number"`
	Location      *string   `json:"location"`
	Status        string    `json:"status"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func mapEquipment(e *model.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:            e.ID,
		CompanyID:     e.CompanyID,
		Name:          e.Name,
		EquipmentType: e.EquipmentType,
		Manufacturer:  e.Manufacturer,
		Model:         e.Model,
		SerialNumber:  e.SerialNumber,
		Location:      e.Location,
		Status:        e.Status,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

type equipmentRequest struct {
	CompanyID     string  `json:"company_id"`
	Name          string  `json:"name"`
	EquipmentType string  `json:"equipment_type"`
	Manufacturer  *string `json:"manufacturer"`
	Model         *string `json:"model"`
	SerialNumber  *string `json:"serial_number"`
	Location      *string `json:"location"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes"`
}

func (req *equipmentRequest) toModel(id string) *model.Equipment {
	return &model.Equipment{
		ID:            id,
		CompanyID:     req.CompanyID,
		Name:          req.Name,
		EquipmentType: req.EquipmentType,
		Manufacturer:  req.Manufacturer,
		Model:         req.Model,
		SerialNumber:  req.SerialNumber,
		Location:      req.Location,
		Status:        req.Status,
		Notes:         req.Notes,
	}
}

// --- Публичные ссылки и аутентификация ---

type shareLinkResponse struct {
	Token     string    `json:"token"`
	RecordID  string    `json:"record_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type certificateNumberResponse struct {
	CertificateNumber string `json:"certificateNumber"`
	Source            string `json:"source"`
	Error             string `json:"error,omitempty"`
}

type purgeResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
	CompanyID    string `json:"companyId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	CompanyID *string `json:"company_id"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type identityResponse struct {
	Subject   string `json:"sub"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
}
