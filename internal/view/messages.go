package view

import (
	"github.com/shrimpsizemoose/haksa/internal/matcher"
	"github.com/shrimpsizemoose/haksa/internal/normalize"
)

const (
	msgNotFound     = "일치하는 계정을 찾지 못했어요. 입력 정보를 다시 확인해 주세요."
	msgFound        = "계정을 찾았어요! (비밀번호는 보안을 위해 표시하지 않아요.)"
	msgFoundDemo    = "계정을 찾았어요! (데모 비밀번호는 실제 비밀번호가 아니에요.)"
	msgUnavailable  = "지금은 조회할 수 없어요. 잠시 후 다시 시도해 주세요."
	MsgRateLimited  = "조회 시도가 너무 많아요. 잠시 후 다시 시도해 주세요."
	MsgResetRequest = "비밀번호는 보안을 위해 표시하지 않습니다.\n" +
		"관리자(또는 담임)에게 비밀번호 재설정을 요청해 주세요."
)

func incompleteMessage(v matcher.Variant) string {
	switch v {
	case matcher.VariantBasic:
		return "학번과 이름을 모두 입력해 주세요."
	case matcher.VariantDemo:
		return "학번(5자리), 이름, 생년월일(6자리), 휴대폰 뒤 4자리를 모두 입력해 주세요."
	default:
		return "학번, 이름, 생년월일(6자리), 휴대폰 뒤 4자리를 모두 입력해 주세요."
	}
}

func malformedMessage(field string) string {
	switch field {
	case normalize.FieldStudentNo:
		return "학번은 숫자 5자리로 입력해 주세요."
	case normalize.FieldBirth:
		return "생년월일은 숫자 6자리(YYMMDD)로 입력해 주세요."
	case normalize.FieldPhoneLast4:
		return "휴대폰 번호 뒤 4자리는 숫자 4자리로 입력해 주세요."
	default:
		return msgNotFound
	}
}
