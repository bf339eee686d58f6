package models

import "strings"

// Ключи формы доставки, которые учитываются при расчёте.
const (
	FormKeyRecoveryMode    = "moyen_recuperation"
	FormKeyExpeditionMode  = "moyen_expedition"
	FormKeyTransportPref   = "preference_transport"
	FormKeyDestinationCity = "ville_destination"
	FormKeyDeliverySector  = "secteur_livraison"
)

// Сырые значения режимов, приходящие из формы.
const (
	recoveryDirectPickupPrefix = "moi_meme_service_"
	recoveryDepotPickup        = "moi_meme_gare"
	recoveryExpressDelivery    = "livraison_express"

	expeditionUTB        = "utb"
	expeditionViaCapital = "expedition_abidjan"
)

// DeliveryForm: плоская форма получателя (ключ → значение).
type DeliveryForm map[string]string

// Value возвращает значение поля без пробелов по краям.
func (f DeliveryForm) Value(key string) string {
	return strings.TrimSpace(f[key])
}

// RecoveryMode разбирает способ получения документа.
func (f DeliveryForm) RecoveryMode() RecoveryMode {
	return ParseRecoveryMode(f[FormKeyRecoveryMode])
}

// ExpeditionMode разбирает способ отправки во внутренние города.
func (f DeliveryForm) ExpeditionMode() ExpeditionMode {
	return ParseExpeditionMode(f[FormKeyExpeditionMode])
}

// DestinationCity возвращает город назначения (пусто при самовывозе).
func (f DeliveryForm) DestinationCity() string {
	return f.Value(FormKeyDestinationCity)
}

// CarrierName возвращает название перевозчика для описания строки счёта.
func (f DeliveryForm) CarrierName() string {
	if f.ExpeditionMode().Kind == ExpeditionUTB {
		return "UTB"
	}
	if pref := f.Value(FormKeyTransportPref); pref != "" {
		return pref
	}
	return "other carrier"
}

// RecoveryKind: закрытый набор способов получения.
type RecoveryKind int

const (
	RecoveryOther RecoveryKind = iota
	RecoveryDirectPickup
	RecoveryDepotPickup
	RecoveryExpressDelivery
)

func (k RecoveryKind) String() string {
	switch k {
	case RecoveryDirectPickup:
		return "direct_pickup"
	case RecoveryDepotPickup:
		return "depot_pickup"
	case RecoveryExpressDelivery:
		return "express_delivery"
	default:
		return "other"
	}
}

// RecoveryMode: вариант способа получения; Raw хранит исходное значение формы.
type RecoveryMode struct {
	Kind RecoveryKind
	Raw  string
}

// ParseRecoveryMode переводит значение формы в закрытый вариант.
func ParseRecoveryMode(raw string) RecoveryMode {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(v, recoveryDirectPickupPrefix):
		return RecoveryMode{Kind: RecoveryDirectPickup, Raw: v}
	case v == recoveryDepotPickup:
		return RecoveryMode{Kind: RecoveryDepotPickup, Raw: v}
	case v == recoveryExpressDelivery:
		return RecoveryMode{Kind: RecoveryExpressDelivery, Raw: v}
	default:
		return RecoveryMode{Kind: RecoveryOther, Raw: v}
	}
}

// Office возвращает службу самовывоза ("mairie" для moi_meme_service_mairie).
func (m RecoveryMode) Office() string {
	if m.Kind != RecoveryDirectPickup {
		return ""
	}
	return strings.TrimPrefix(m.Raw, recoveryDirectPickupPrefix)
}

// Ships сообщает, требует ли способ физической отправки документа (через вокзал или курьером).
func (m RecoveryMode) Ships() bool {
	return m.Kind == RecoveryDepotPickup || m.Kind == RecoveryExpressDelivery
}

// ExpeditionKind: закрытый набор способов отправки.
type ExpeditionKind int

const (
	ExpeditionOther ExpeditionKind = iota
	ExpeditionUTB
	ExpeditionViaCapital
)

// ExpeditionMode: вариант способа отправки.
type ExpeditionMode struct {
	Kind ExpeditionKind
	Raw  string
}

// ParseExpeditionMode переводит значение формы в закрытый вариант.
func ParseExpeditionMode(raw string) ExpeditionMode {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case expeditionUTB:
		return ExpeditionMode{Kind: ExpeditionUTB, Raw: v}
	case expeditionViaCapital:
		return ExpeditionMode{Kind: ExpeditionViaCapital, Raw: v}
	default:
		return ExpeditionMode{Kind: ExpeditionOther, Raw: v}
	}
}
