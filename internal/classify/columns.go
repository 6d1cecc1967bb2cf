package classify

// Provider column names. Matching is exact and case-sensitive: officer files
// carry a lowercase "cpf" while person files carry "CPF".
const (
	ColCNPJ            = "CNPJ"
	ColLegalName       = "razaoSocial"
	ColTradeName       = "nomeFantasia"
	ColOpenedAt        = "dataAbertura"
	ColLegalNature     = "naturezaJuridica"
	ColCompanySize     = "porte"
	ColRegistryStatus  = "situacaoCadastral"
	ColRevenue         = "faturamentoPresumido"
	ColEmployeeCount   = "quantidadeFuncionarios"
	ColPrimaryCNAE     = "cnaePrincipal"
	ColPrimaryCNAEDesc = "descricaoCnaePrincipal"
	ColRisk            = "risco"
	ColScore           = "score"
	ColEmail           = "email"

	ColStreet       = "logradouro"
	ColNumber       = "numero"
	ColComplement   = "complemento"
	ColNeighborhood = "bairro"
	ColCity         = "cidade"
	ColState        = "uf"
	ColZipCode      = "cep"

	ColMobile1DDD   = "dddCelular1"
	ColMobile1      = "celular1"
	ColMobile2DDD   = "dddCelular2"
	ColMobile2      = "celular2"
	ColLandline1DDD = "dddTelefone1"
	ColLandline1    = "telefone1"

	ColPersonCPF  = "CPF"
	ColName       = "nome"
	ColBirthDate  = "dataNascimento"
	ColMotherName = "nomeMae"
	ColGender     = "sexo"
	ColIncome     = "renda"

	ColOfficerCPF          = "cpf"
	ColOfficerCPFFormatted = "cpfFormatado"
	ColParticipation       = "participacao"
	ColQualification       = "qualificacao"
)

// PhoneColumns lists (ddd, number) pairs in preference order.
var PhoneColumns = [][2]string{
	{ColMobile1DDD, ColMobile1},
	{ColMobile2DDD, ColMobile2},
	{ColLandline1DDD, ColLandline1},
}
