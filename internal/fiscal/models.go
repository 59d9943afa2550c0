package fiscal

// ModelName returns the descriptive name of a 2-digit document-model code as
// published in Tabela 4.1.1 of the SPED fiscal documentation. Unknown codes
// map to "Modelo Desconhecido". The descriptions are data consumed by report
// and export file naming, so they stay in Portuguese.
func ModelName(code string) string {
	switch code {
	case "01":
		return "Nota Fiscal"
	case "1B":
		return "Nota Fiscal Avulsa"
	case "02":
		return "Nota Fiscal de Venda a Consumidor"
	case "2D":
		return "Cupom Fiscal emitido por ECF"
	case "2E":
		return "Bilhete de Passagem emitido por ECF"
	case "04":
		return "Nota Fiscal de Produtor"
	case "06":
		return "Nota Fiscal / Conta de Energia Elétrica"
	case "07":
		return "Nota Fiscal de Serviço de Transporte"
	case "08":
		return "Conhecimento de Transporte Rodoviário de Cargas"
	case "8B":
		return "Conhecimento de Transporte de Cargas Avulso"
	case "09":
		return "Conhecimento de Transporte Aquaviário de Cargas"
	case "10":
		return "Conhecimento Aéreo"
	case "11":
		return "Conhecimento de Transporte Ferroviário de Cargas"
	case "13":
		return "Bilhete de Passagem Rodoviário"
	case "14":
		return "Bilhete de Passagem Aquaviário"
	case "15":
		return "Bilhete de Passagem e Nota de Bagagem"
	case "16":
		return "Bilhete de Passagem Ferroviário"
	case "17":
		return "Despacho de Transporte"
	case "18":
		return "Resumo de Movimento Diário"
	case "20":
		return "Ordem de Coleta de Cargas"
	case "21":
		return "Nota Fiscal de Serviço de Comunicação"
	case "22":
		return "Nota Fiscal de Serviço de Telecomunicação"
	case "23":
		return "GNRE"
	case "24":
		return "Autorização de Carregamento e Transporte"
	case "25":
		return "Manifesto de Carga"
	case "26":
		return "Conhecimento de Transporte Multimodal de Cargas"
	case "27":
		return "Nota Fiscal de Transporte Ferroviário de Cargas"
	case "28":
		return "Nota Fiscal / Conta de Fornecimento de Gás Canalizado"
	case "29":
		return "Nota Fiscal / Conta de Fornecimento de Água Canalizada"
	case "30":
		return "Bilhete / Recibo do Passageiro"
	case "55":
		return "Nota Fiscal Eletrônica: NF-e"
	case "57":
		return "Conhecimento de Transporte Eletrônico: CT-e"
	case "59":
		return "Cupom Fiscal Eletrônico: CF-e (CF-e-SAT)"
	case "60":
		return "Cupom Fiscal Eletrônico: CF-e-ECF"
	case "63":
		return "Bilhete de Passagem Eletrônico: BP-e"
	case "65":
		return "Nota Fiscal Eletrônica ao Consumidor Final: NFC-e"
	case "66":
		return "Nota Fiscal de Energia Elétrica Eletrônica: NF3e"
	case "67":
		return "Conhecimento de Transporte Eletrônico para Outros Serviços: CT-e OS"
	default:
		return "Modelo Desconhecido"
	}
}
