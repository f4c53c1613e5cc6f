package catalog

const defaultCode = "talk"

// Defaults returns the editions offered by the promotion.
func Defaults() []Entry {
	return []Entry{
		{ID: "pep-together", Name: "人教版·一起点", Linkage: "https://pan.baidu.com/s/1tCTnBVJR27pGb5lBnfNJCg?pwd=talk", ExtractionCode: defaultCode},
		{ID: "pep-three", Name: "人教版·三起点", Linkage: "https://pan.baidu.com/s/1VxtrXNOoqeI-jyNl3VYucw?pwd=talk", ExtractionCode: defaultCode},
		{ID: "bnu", Name: "北师大版", Linkage: "https://pan.baidu.com/s/1ehElAltU7dL9OT4K3lU3vw?pwd=talk", ExtractionCode: defaultCode},
		{ID: "jijiao-together", Name: "冀教版·一起点", Linkage: "https://pan.baidu.com/s/1OeLc_dnwdaU0TCEyM6-Ffg?pwd=talk", ExtractionCode: defaultCode},
		{ID: "jijiao-three", Name: "冀教版·三起点", Linkage: "https://pan.baidu.com/s/154u1tF-YzzOXqMmWZHpDRg?pwd=talk", ExtractionCode: defaultCode},
		{ID: "fltrp-together", Name: "外研社·一起点", Linkage: "https://pan.baidu.com/s/1girOir1Mx_pNOeQbc4i-iQ?pwd=talk", ExtractionCode: defaultCode},
		{ID: "fltrp-three", Name: "外研社·三起点", Linkage: "https://pan.baidu.com/s/1ByBQ9O6tnX7bTwOifFq7Jg?pwd=talk", ExtractionCode: defaultCode},
		{ID: "yilin", Name: "译林版", Linkage: "https://pan.baidu.com/s/1Vs2yD0438JUPvmMOK5F89w?pwd=talk", ExtractionCode: defaultCode},
		{ID: "shangjiao", Name: "沪教版", Linkage: "https://pan.baidu.com/s/1H97VszvcHAaSTJlPLlGMbA?pwd=talk", ExtractionCode: defaultCode},
	}
}
