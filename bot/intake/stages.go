package intake

import "MudaBot/entity"

// Stage is a position in the fixed question sequence.
type Stage string

const (
	StageOrigin        Stage = "origin"
	StageDestination   Stage = "destination"
	StagePropertyType  Stage = "property_type"
	StageSizeEstimate  Stage = "size_estimate"
	StageHasElevator   Stage = "has_elevator"
	StageNeedsPacking  Stage = "needs_packing"
	StageName          Stage = "name"
	StageEmail         Stage = "email"
	StageDate          Stage = "date"
	StageWantsItemList Stage = "wants_item_list"
	StageItemListText  Stage = "item_list_text"
	StageDone          Stage = "done"
)

// stageOrder is the main dialogue path. The only branch is the skip from
// wants_item_list straight to done when the user declines.
var stageOrder = []Stage{
	StageOrigin,
	StageDestination,
	StagePropertyType,
	StageSizeEstimate,
	StageHasElevator,
	StageNeedsPacking,
	StageName,
	StageEmail,
	StageDate,
	StageWantsItemList,
	StageItemListText,
	StageDone,
}

// NextStage returns the stage that follows s on the main path.
func NextStage(s Stage, facts entity.TripFacts) Stage {
	if s == StageWantsItemList && !facts.WantsItemList {
		return StageDone
	}
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return StageDone
}

// Floor defaults derived from the elevator answer. No separate floor
// question is asked.
const (
	floorWithElevator    = 1
	floorWithoutElevator = 2
)

// Option IDs. Button/list replies arrive as these IDs; typed answers are
// matched against them (verbatim or by 1-based ordinal).
const (
	OptionYes = "sim"
	OptionNo  = "nao"

	PropertyApartment  = "apartamento"
	PropertyHouse      = "casa"
	PropertyCommercial = "comercial"
	PropertyOther      = "outro"

	SizeStudio      = "studio"
	SizeOneBedroom  = "1_quarto"
	SizeTwoBedrooms = "2_quartos"
	SizeThreePlus   = "3_quartos"
	SizeFourPlus    = "4_mais"
)

var yesNoButtons = []Button{
	{ID: OptionYes, Title: "Sim"},
	{ID: OptionNo, Title: "Não"},
}

var propertySections = []ListSection{
	{
		Title: "Tipo de imóvel",
		Rows: []ListRow{
			{ID: PropertyApartment, Title: "Apartamento"},
			{ID: PropertyHouse, Title: "Casa"},
			{ID: PropertyCommercial, Title: "Comercial", Description: "Escritório ou loja"},
			{ID: PropertyOther, Title: "Outro"},
		},
	},
}

var sizeSections = []ListSection{
	{
		Title: "Tamanho da mudança",
		Rows: []ListRow{
			{ID: SizeStudio, Title: "Studio / Kitnet"},
			{ID: SizeOneBedroom, Title: "1 quarto"},
			{ID: SizeTwoBedrooms, Title: "2 quartos"},
			{ID: SizeThreePlus, Title: "3 quartos"},
			{ID: SizeFourPlus, Title: "4 quartos ou mais"},
		},
	},
}

// propertyLabels maps option IDs to the label shown in the result message.
var propertyLabels = map[string]string{
	PropertyApartment:  "Apartamento",
	PropertyHouse:      "Casa",
	PropertyCommercial: "Comercial",
	PropertyOther:      "Outro",
}

func sectionOptionIDs(sections []ListSection) []string {
	var ids []string
	for _, sec := range sections {
		for _, row := range sec.Rows {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

// Outbound copy. Portuguese, like the marketplace the bot fronts.
const (
	msgWelcome = "Olá! 👋 Sou o assistente virtual de mudanças.\n" +
		"Vou fazer algumas perguntas rápidas para calcular uma estimativa de preço para a sua mudança.\n\n" +
		"Para começar: de qual cidade você está saindo? (ex: São Paulo - SP)"

	promptOrigin       = "De qual cidade você está saindo? (ex: São Paulo - SP)"
	promptDestination  = "Para qual cidade você está indo? (ex: Rio de Janeiro - RJ)"
	promptPropertyType = "Qual o tipo de imóvel da mudança?"
	promptSizeEstimate = "Qual o tamanho aproximado da mudança?"
	promptHasElevator  = "O imóvel tem elevador?"
	promptNeedsPacking = "Você vai precisar do serviço de embalagem?"
	promptName         = "Qual é o seu nome?"
	promptEmail        = "Qual é o seu e-mail para receber a cotação?"
	promptDate         = "Qual a data prevista da mudança? (ex: 15/10/2026)\nSe ainda não souber, responda *pular*."
	promptItemList     = "Quer enviar uma lista dos principais itens? Isso deixa a estimativa mais precisa."
	promptItemListText = "Pode mandar a lista de itens em uma única mensagem (ex: geladeira, sofá 3 lugares, cama de casal...)."

	listButtonLabel = "Ver opções"

	msgBusy = "⏳ Ainda estou processando sua mensagem anterior, um instante..."
	msgTooFast = "⏳ Recebi duas mensagens muito rápido. Aguarde um instante e envie sua resposta novamente."
	msgCalculating = "Certo! Estou calculando sua estimativa, isso pode levar alguns segundos... ⏳"
	msgFailure = "😕 Ocorreu um erro ao processar sua solicitação. Por favor, envie *oi* para recomeçar."
	msgGenericPartners = "📣 Nossas empresas parceiras vão entrar em contato com você em breve!"

	msgTooShort   = "❌ Não entendi sua resposta."
	msgPickOption = "❌ Não entendi sua resposta. Escolha uma das opções abaixo."
	msgBadEmail   = "❌ E-mail inválido. Envie no formato nome@exemplo.com"
	msgBadDate    = "❌ Data inválida ou no passado. Envie no formato DD/MM/AAAA (ex: 15/10/2026) ou responda *pular*."
)
