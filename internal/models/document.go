package models

// DocumentType: тип административного документа.
type DocumentType string

const (
	DocumentBirthExtract    DocumentType = "extrait_naissance"
	DocumentBirthFullCopy   DocumentType = "copie_integrale_naissance"
	DocumentMarriageExtract DocumentType = "acte_mariage"
	DocumentDeathExtract    DocumentType = "acte_deces"
	DocumentResidenceCert   DocumentType = "certificat_residence"
	DocumentNationalityCert DocumentType = "certificat_nationalite"
	DocumentCriminalRecord  DocumentType = "casier_judiciaire"
	DocumentLegalization    DocumentType = "legalisation"
)

// DocumentInfo описывает документ каталога и его базовую цену за экземпляр.
type DocumentInfo struct {
	Type      DocumentType `json:"type"`
	Name      string       `json:"name"`
	BasePrice int64        `json:"base_price"`
}

var documentCatalog = map[DocumentType]DocumentInfo{
	DocumentBirthExtract:    {Type: DocumentBirthExtract, Name: "Extrait d'acte de naissance", BasePrice: 500},
	DocumentBirthFullCopy:   {Type: DocumentBirthFullCopy, Name: "Copie intégrale d'acte de naissance", BasePrice: 1000},
	DocumentMarriageExtract: {Type: DocumentMarriageExtract, Name: "Extrait d'acte de mariage", BasePrice: 1000},
	DocumentDeathExtract:    {Type: DocumentDeathExtract, Name: "Extrait d'acte de décès", BasePrice: 500},
	DocumentResidenceCert:   {Type: DocumentResidenceCert, Name: "Certificat de résidence", BasePrice: 1500},
	DocumentNationalityCert: {Type: DocumentNationalityCert, Name: "Certificat de nationalité", BasePrice: 2000},
	DocumentCriminalRecord:  {Type: DocumentCriminalRecord, Name: "Extrait de casier judiciaire", BasePrice: 1500},
	DocumentLegalization:    {Type: DocumentLegalization, Name: "Légalisation de document", BasePrice: 500},
}

// LookupDocument возвращает описание документа из каталога.
func LookupDocument(t DocumentType) (DocumentInfo, bool) {
	info, ok := documentCatalog[t]
	return info, ok
}

// ServiceType: административная служба, выдающая документ.
type ServiceType string

const (
	ServiceMairie         ServiceType = "mairie"
	ServiceSousPrefecture ServiceType = "sous_prefecture"
	ServiceJustice        ServiceType = "justice"
)

// ServiceFallbackOrder: порядок просмотра служб, когда нужная не указана или не содержит цены.
var ServiceFallbackOrder = []ServiceType{ServiceMairie, ServiceSousPrefecture, ServiceJustice}

// CityPricing: снимок таблицы цен города. Передаётся явно в расчёт и не изменяется.
type CityPricing struct {
	City     string                                 `json:"city"`
	IsActive bool                                   `json:"is_active"`
	Prices   map[ServiceType]map[DocumentType]int64 `json:"prices"`
}

// Price возвращает цену документа у службы; ноль и отсутствие считаются "нет цены".
func (p *CityPricing) Price(service ServiceType, doc DocumentType) (int64, bool) {
	if p == nil {
		return 0, false
	}
	byDoc, ok := p.Prices[service]
	if !ok {
		return 0, false
	}
	price, ok := byDoc[doc]
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}
